package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/user"
)

func Test_enrollmentApi_completion(t *testing.T) {
	resetDB(t)
	trainer, trainerToken := createUser(t, "trainer@test.sa", user.RoleTrainer)
	student, studentToken := createUser(t, "student@test.sa", user.RoleStudent)
	_, supervisorToken := createUser(t, "supervisor@test.sa", user.RoleSupervisor)
	c := createCourse(t, trainer.ID, true)

	rec := serve(t, http.MethodPost, "/api/courses/"+c.ID+"/lessons", trainerToken, course.NewLesson{TitleAr: "الدرس الأول", DurationMinutes: 30})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var lesson course.Lesson
	decode(t, rec, &lesson)

	enroll := enrollment.NewEnrollment{CourseID: c.ID}
	runHTTPTests(t, []httpTest{
		{name: "complete without enrollment", method: http.MethodPost, path: "/api/courses/" + c.ID + "/complete", token: studentToken, wantCode: http.StatusNotFound, wantErr: "not enrolled"},
		{name: "trainer cannot enroll", method: http.MethodPost, path: "/api/enrollments", token: trainerToken, body: enroll, wantCode: http.StatusForbidden},
		{name: "unknown course", method: http.MethodPost, path: "/api/enrollments", token: studentToken, body: enrollment.NewEnrollment{CourseID: "unknown"}, wantCode: http.StatusNotFound},
		{name: "enrolled", method: http.MethodPost, path: "/api/enrollments", token: studentToken, body: enroll, wantCode: http.StatusCreated},
		{name: "already enrolled", method: http.MethodPost, path: "/api/enrollments", token: studentToken, body: enroll, wantCode: http.StatusConflict, wantErr: "already enrolled"},
		{name: "unknown lesson", method: http.MethodPost, path: "/api/lessons/unknown/complete", token: studentToken, wantCode: http.StatusNotFound},
		{name: "lesson completed", method: http.MethodPost, path: "/api/lessons/" + lesson.ID + "/complete", token: studentToken, wantCode: http.StatusOK},
		{name: "lesson completion is idempotent", method: http.MethodPost, path: "/api/lessons/" + lesson.ID + "/complete", token: studentToken, wantCode: http.StatusOK},
	})

	rec = serve(t, http.MethodGet, "/api/enrollments", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var enrs []enrollment.Enrollment
	decode(t, rec, &enrs)
	require.Len(t, enrs, 1)
	assert.Equal(t, []string{lesson.ID}, enrs[0].CompletedLessons)
	assert.Equal(t, 99, enrs[0].Progress) // capped until the course is completed

	rec = serve(t, http.MethodGet, "/api/courses/"+c.ID+"/progress", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lps []enrollment.LessonProgress
	decode(t, rec, &lps)
	require.Len(t, lps, 1)
	assert.True(t, lps[0].Completed)

	rec = serve(t, http.MethodPost, "/api/courses/"+c.ID+"/complete", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done enrollment.Completion
	decode(t, rec, &done)
	assert.True(t, done.Enrollment.IsCompleted)
	assert.Equal(t, 100, done.Enrollment.Progress)
	assert.Equal(t, int64(1), done.Certificate.CertificateNumber)
	assert.Equal(t, "Completion Certificate: "+c.TitleEn, done.Certificate.TitleEn)
	assert.NotEmpty(t, done.Certificate.VerificationCode)

	runHTTPTests(t, []httpTest{
		{name: "completed once", method: http.MethodPost, path: "/api/courses/" + c.ID + "/complete", token: studentToken, wantCode: http.StatusBadRequest, wantErr: "already completed"},
	})

	rec = serve(t, http.MethodGet, "/api/certificates/verify/"+done.Certificate.VerificationCode, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified certificate.Verified
	decode(t, rec, &verified)
	assert.Equal(t, student.Name(), verified.HolderName)
	assert.Equal(t, c.TitleAr, verified.CourseName)
	assert.Equal(t, done.Certificate.ID, verified.ID)

	entries := auditEntries(t, supervisorToken)
	completed := findAuditEntry(t, entries, audit.ActionCourseCompleted, c.ID)
	assert.Equal(t, student.ID, completed.ActorUserID)
	assert.Equal(t, audit.EntityCourse, completed.EntityType)
	assert.Equal(t, done.Certificate.ID, completed.Details["certificateId"])
	issued := findAuditEntry(t, entries, audit.ActionCertificateIssued, done.Certificate.ID)
	assert.Equal(t, student.ID, issued.ActorUserID)
	assert.Equal(t, audit.EntityCertificate, issued.EntityType)
	assert.Equal(t, c.ID, issued.Details["courseId"])
	assert.Equal(t, certificate.TypeCourseCompletion, issued.Details["type"])
}
