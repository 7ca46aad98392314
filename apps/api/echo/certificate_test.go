package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/user"
)

func Test_certificateApi(t *testing.T) {
	resetDB(t)
	trainer, trainerToken := createUser(t, "trainer@test.sa", user.RoleTrainer)
	student, studentToken := createUser(t, "student@test.sa", user.RoleStudent)
	_, otherToken := createUser(t, "other@test.sa", user.RoleStudent)
	_, supervisorToken := createUser(t, "supervisor@test.sa", user.RoleSupervisor)
	c := createCourse(t, trainer.ID, true)

	issue := certificate.ManualIssue{UserID: student.ID, CourseID: c.ID}
	runHTTPTests(t, []httpTest{
		{name: "issue: trainer", method: http.MethodPost, path: "/api/admin/issue-certificate", token: trainerToken, body: issue, wantCode: http.StatusForbidden},
		{
			name: "issue: unknown user", method: http.MethodPost, path: "/api/admin/issue-certificate", token: supervisorToken,
			body: certificate.ManualIssue{UserID: "unknown", CourseID: c.ID}, wantCode: http.StatusNotFound,
		},
		{
			name: "issue: unknown course", method: http.MethodPost, path: "/api/admin/issue-certificate", token: supervisorToken,
			body: certificate.ManualIssue{UserID: student.ID, CourseID: "unknown"}, wantCode: http.StatusNotFound,
		},
	})

	rec := serve(t, http.MethodPost, "/api/admin/issue-certificate", supervisorToken, issue)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cert certificate.Certificate
	decode(t, rec, &cert)
	assert.Equal(t, "Completion Certificate (Admin Issued): "+c.TitleEn, cert.TitleEn)

	holderPath := "/api/certificates/" + cert.ID + "/user"
	runHTTPTests(t, []httpTest{
		{name: "holder: owner", method: http.MethodGet, path: holderPath, token: studentToken, wantCode: http.StatusOK},
		{name: "holder: trainer", method: http.MethodGet, path: holderPath, token: trainerToken, wantCode: http.StatusOK},
		{name: "holder: other student", method: http.MethodGet, path: holderPath, token: otherToken, wantCode: http.StatusForbidden},
		{name: "holder: unknown certificate", method: http.MethodGet, path: "/api/certificates/unknown/user", token: trainerToken, wantCode: http.StatusNotFound},
		{name: "verify: unknown code", method: http.MethodGet, path: "/api/certificates/verify/unknown", wantCode: http.StatusNotFound},
	})

	rec = serve(t, http.MethodGet, "/api/certificates", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var certs []certificate.Certificate
	decode(t, rec, &certs)
	require.Len(t, certs, 1)
	assert.Equal(t, cert.ID, certs[0].ID)

	entry := findAuditEntry(t, auditEntries(t, supervisorToken), audit.ActionAdminCertificateIssued, cert.ID)
	assert.Equal(t, student.ID, entry.Details["targetUserId"])
	assert.Equal(t, c.ID, entry.Details["courseId"])

	t.Run("verify names the holder and the course", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/certificates/verify/"+cert.VerificationCode, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var data map[string]interface{}
		decode(t, rec, &data)
		assert.Equal(t, student.Name(), data["userName"])
		assert.Equal(t, c.TitleAr, data["courseName"])
	})

	t.Run("verify after the course is deleted", func(t *testing.T) {
		rec := serve(t, http.MethodDelete, "/api/courses/"+c.ID, trainerToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = serve(t, http.MethodGet, "/api/certificates/verify/"+cert.VerificationCode, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var data map[string]interface{}
		decode(t, rec, &data)
		assert.Equal(t, student.Name(), data["userName"])
		assert.NotContains(t, data, "courseName")
		assert.Nil(t, data["courseId"])
		assert.Equal(t, float64(cert.CertificateNumber), data["certificateNumber"])
	})
}
