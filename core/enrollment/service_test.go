package enrollment_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	inmemdb "github.com/trezcool/sejali/storage/database/inmem"
)

type entry struct{ action, entityID string }

type recorder struct{ entries []entry }

func (r *recorder) Record(_, action, _, entityID string, _ audit.Details) {
	r.entries = append(r.entries, entry{action: action, entityID: entityID})
}

// issuer fails while down is set, then numbers certificates in order.
type issuer struct {
	down   bool
	issued []certificate.NewCertificate
}

func (is *issuer) Issue(_ context.Context, nc certificate.NewCertificate) (certificate.Certificate, error) {
	if is.down {
		return certificate.Certificate{}, errors.New("db down")
	}
	is.issued = append(is.issued, nc)
	courseID := nc.CourseID
	return certificate.Certificate{
		ID:                "cert-" + nc.UserID,
		UserID:            nc.UserID,
		CourseID:          &courseID,
		Type:              nc.Type,
		CertificateNumber: int64(len(is.issued)),
	}, nil
}

func TestService_CompleteCourse(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	crsSvc := course.NewService(inmemdb.NewCourseRepository(db))
	iss := &issuer{}
	rec := &recorder{}
	svc := enrollment.NewService(inmemdb.NewEnrollmentRepository(db), crsSvc, iss, rec)

	published := true
	crs, err := crsSvc.Create(ctx, "trainer-1", course.NewCourse{TitleAr: "الشبكات", Category: "it", Duration: 8, IsPublished: &published})
	require.NoError(t, err)
	lesson, err := crsSvc.CreateLesson(ctx, crs.ID, course.NewLesson{TitleAr: "مقدمة"})
	require.NoError(t, err)
	_, err = crsSvc.CreateLesson(ctx, crs.ID, course.NewLesson{TitleAr: "الدرس الثاني", OrderIndex: 1})
	require.NoError(t, err)

	const userID = "student-1"
	_, err = svc.CompleteCourse(ctx, userID, crs.ID)
	assert.Equal(t, enrollment.ErrNotFound, errors.Cause(err))

	_, err = svc.Enroll(ctx, userID, enrollment.NewEnrollment{CourseID: crs.ID})
	require.NoError(t, err)
	_, err = svc.CompleteLesson(ctx, userID, lesson.ID)
	require.NoError(t, err)

	t.Run("failed issuance reopens the enrollment", func(t *testing.T) {
		iss.down = true
		defer func() { iss.down = false }()

		_, err := svc.CompleteCourse(ctx, userID, crs.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")

		enrs, err := svc.QueryByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, enrs, 1)
		assert.False(t, enrs[0].IsCompleted)
		assert.Nil(t, enrs[0].CompletedAt)
		assert.Equal(t, 50, enrs[0].Progress)
		assert.Empty(t, rec.entries)
	})

	t.Run("retry completes and issues once", func(t *testing.T) {
		done, err := svc.CompleteCourse(ctx, userID, crs.ID)
		require.NoError(t, err)
		assert.True(t, done.Enrollment.IsCompleted)
		assert.Equal(t, 100, done.Enrollment.Progress)
		assert.Equal(t, int64(1), done.Certificate.CertificateNumber)
		if assert.Len(t, iss.issued, 1) {
			assert.Equal(t, certificate.TypeCourseCompletion, iss.issued[0].Type)
			assert.Equal(t, crs.ID, iss.issued[0].CourseID)
		}
		assert.Equal(t, []entry{
			{action: audit.ActionCourseCompleted, entityID: crs.ID},
			{action: audit.ActionCertificateIssued, entityID: done.Certificate.ID},
		}, rec.entries)

		_, err = svc.CompleteCourse(ctx, userID, crs.ID)
		assert.Equal(t, enrollment.ErrAlreadyCompleted, errors.Cause(err))
		assert.Len(t, iss.issued, 1)
	})
}
