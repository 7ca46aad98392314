package inmemdb_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	inmemdb "github.com/trezcool/sejali/storage/database/inmem"
)

func newCourseFixture(t *testing.T, repo course.Repository) (course.Course, course.Lesson) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	c, err := repo.CreateCourse(ctx, course.Course{
		ID:          uuid.NewString(),
		TitleAr:     "أساسيات البرمجة",
		Category:    "programming",
		Duration:    10,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	l, err := repo.CreateLesson(ctx, course.Lesson{ID: uuid.NewString(), CourseID: c.ID, TitleAr: "مقدمة", CreatedAt: now})
	require.NoError(t, err)
	return c, l
}

func TestCourseRepository_DeleteCourse(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	courses := inmemdb.NewCourseRepository(db)
	enrollments := inmemdb.NewEnrollmentRepository(db)
	certs := inmemdb.NewCertificateRepository(db)

	c, l := newCourseFixture(t, courses)
	userID := uuid.NewString()
	_, err := enrollments.CreateEnrollment(ctx, enrollment.Enrollment{ID: uuid.NewString(), UserID: userID, CourseID: c.ID, EnrolledAt: time.Now()})
	require.NoError(t, err)
	_, err = enrollments.UpsertLessonProgress(ctx, enrollment.LessonProgress{ID: uuid.NewString(), UserID: userID, LessonID: l.ID, Completed: true})
	require.NoError(t, err)
	courseID := c.ID
	cert, err := certs.CreateCertificate(ctx, certificate.Certificate{
		ID:               uuid.NewString(),
		UserID:           userID,
		CourseID:         &courseID,
		Type:             certificate.TypeCourseCompletion,
		VerificationCode: "ABCD1234",
		IssuedAt:         time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, courses.DeleteCourse(ctx, c.ID))

	_, err = courses.GetCourse(ctx, c.ID)
	assert.Equal(t, course.ErrNotFound, err)
	_, err = courses.GetLesson(ctx, l.ID)
	assert.Equal(t, course.ErrLessonNotFound, err)
	_, err = enrollments.GetEnrollment(ctx, userID, c.ID)
	assert.Equal(t, enrollment.ErrNotFound, err)
	progress, err := enrollments.QueryLessonProgress(ctx, userID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, progress)

	// the certificate survives without its course
	got, err := certs.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CourseID)
	assert.Equal(t, cert.CertificateNumber, got.CertificateNumber)

	assert.Equal(t, course.ErrNotFound, courses.DeleteCourse(ctx, c.ID))
}

func TestCourseRepository_DeleteLesson(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	courses := inmemdb.NewCourseRepository(db)
	enrollments := inmemdb.NewEnrollmentRepository(db)

	c, l := newCourseFixture(t, courses)
	other, err := courses.CreateLesson(ctx, course.Lesson{ID: uuid.NewString(), CourseID: c.ID, TitleAr: "الدرس الثاني", OrderIndex: 1})
	require.NoError(t, err)

	userID := uuid.NewString()
	enr, err := enrollments.CreateEnrollment(ctx, enrollment.Enrollment{ID: uuid.NewString(), UserID: userID, CourseID: c.ID})
	require.NoError(t, err)
	_, err = enrollments.UpdateEnrollmentProgress(ctx, enr.ID, []string{l.ID, other.ID}, 99)
	require.NoError(t, err)

	require.NoError(t, courses.DeleteLesson(ctx, l.ID))

	enr, err = enrollments.GetEnrollment(ctx, userID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, enr.CompletedLessons)

	lessons, err := courses.QueryLessons(ctx, c.ID)
	require.NoError(t, err)
	if assert.Len(t, lessons, 1) {
		assert.Equal(t, other.ID, lessons[0].ID)
	}
	assert.Equal(t, course.ErrLessonNotFound, courses.DeleteLesson(ctx, l.ID))
}

func TestCertificateRepository_CreateCertificate(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	certs := inmemdb.NewCertificateRepository(db)

	const n = 50
	numbers := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cert, err := certs.CreateCertificate(ctx, certificate.Certificate{
				ID:       uuid.NewString(),
				UserID:   uuid.NewString(),
				Type:     certificate.TypeCourseCompletion,
				IssuedAt: time.Now(),
			})
			if assert.NoError(t, err) {
				numbers[i] = cert.CertificateNumber
			}
		}(i)
	}
	wg.Wait()

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, num := range numbers {
		assert.Equal(t, int64(i+1), num)
	}

	db.Reset()
	cert, err := certs.CreateCertificate(ctx, certificate.Certificate{ID: uuid.NewString(), UserID: uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cert.CertificateNumber)

	_, err = certs.GetCertificate(ctx, uuid.NewString())
	assert.Equal(t, certificate.ErrNotFound, err)
}

func TestEnrollmentRepository(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	enrollments := inmemdb.NewEnrollmentRepository(db)

	userID, courseID := uuid.NewString(), uuid.NewString()
	enr, err := enrollments.CreateEnrollment(ctx, enrollment.Enrollment{ID: uuid.NewString(), UserID: userID, CourseID: courseID})
	require.NoError(t, err)
	assert.Equal(t, []string{}, enr.CompletedLessons)

	t.Run("duplicate enrollment", func(t *testing.T) {
		_, err := enrollments.CreateEnrollment(ctx, enrollment.Enrollment{ID: uuid.NewString(), UserID: userID, CourseID: courseID})
		assert.Equal(t, enrollment.ErrAlreadyEnrolled, err)
	})

	t.Run("complete once", func(t *testing.T) {
		done, err := enrollments.CompleteEnrollment(ctx, enr.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, done.IsCompleted)
		assert.Equal(t, 100, done.Progress)
		assert.NotNil(t, done.CompletedAt)

		_, err = enrollments.CompleteEnrollment(ctx, enr.ID, time.Now().UTC())
		assert.Equal(t, enrollment.ErrAlreadyCompleted, err)
	})

	t.Run("concurrent completion", func(t *testing.T) {
		other, err := enrollments.CreateEnrollment(ctx, enrollment.Enrollment{ID: uuid.NewString(), UserID: uuid.NewString(), CourseID: courseID})
		require.NoError(t, err)

		const n = 10
		errs := make(chan error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := enrollments.CompleteEnrollment(ctx, other.ID, time.Now().UTC())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var succeeded int
		for err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.Equal(t, enrollment.ErrAlreadyCompleted, err)
			}
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("reopen", func(t *testing.T) {
		require.NoError(t, enrollments.ReopenEnrollment(ctx, enr.ID, 40))
		got, err := enrollments.GetEnrollment(ctx, userID, courseID)
		require.NoError(t, err)
		assert.False(t, got.IsCompleted)
		assert.Nil(t, got.CompletedAt)
		assert.Equal(t, 40, got.Progress)

		_, err = enrollments.CompleteEnrollment(ctx, enr.ID, time.Now().UTC())
		assert.NoError(t, err)
	})

	t.Run("unknown enrollment", func(t *testing.T) {
		_, err := enrollments.CompleteEnrollment(ctx, uuid.NewString(), time.Now())
		assert.Equal(t, enrollment.ErrNotFound, err)
		assert.Equal(t, enrollment.ErrNotFound, enrollments.ReopenEnrollment(ctx, uuid.NewString(), 0))
	})
}

func TestEnrollmentRepository_lessonProgressCopies(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	courses := inmemdb.NewCourseRepository(db)
	enrollments := inmemdb.NewEnrollmentRepository(db)

	c, l := newCourseFixture(t, courses)
	userID := uuid.NewString()
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	lp, err := enrollments.UpsertLessonProgress(ctx, enrollment.LessonProgress{ID: uuid.NewString(), UserID: userID, LessonID: l.ID, Completed: true, CompletedAt: &at})
	require.NoError(t, err)
	*lp.CompletedAt = at.Add(time.Hour)

	again := at.Add(24 * time.Hour)
	updated, err := enrollments.UpsertLessonProgress(ctx, enrollment.LessonProgress{ID: uuid.NewString(), UserID: userID, LessonID: l.ID, Completed: true, CompletedAt: &again})
	require.NoError(t, err)
	assert.Equal(t, lp.ID, updated.ID)
	*updated.CompletedAt = at.Add(48 * time.Hour)

	rows, err := enrollments.QueryLessonProgress(ctx, userID, c.ID)
	require.NoError(t, err)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, again, *rows[0].CompletedAt)
		*rows[0].CompletedAt = at
	}
	rows, err = enrollments.QueryLessonProgress(ctx, userID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, again, *rows[0].CompletedAt)
}
