package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/user"
)

func Test_authApi_register(t *testing.T) {
	resetDB(t)
	createUser(t, "taken@test.sa", user.RoleStudent)

	tests := []httpTest{
		{name: "required fields", body: user.NewUser{}, wantCode: http.StatusBadRequest},
		{
			name:     "short password",
			body:     user.NewUser{Email: "new@test.sa", Password: "123", FirstName: "New", LastName: "User"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "duplicate email",
			body:     user.NewUser{Email: "TAKEN@test.sa", Password: testPassword, FirstName: "New", LastName: "User"},
			wantCode: http.StatusConflict,
			wantErr:  user.ErrEmailExists.Error(),
		},
		{
			name:     "registered",
			body:     user.NewUser{Email: "new@test.sa", Password: testPassword, FirstName: "New", LastName: "User"},
			wantCode: http.StatusCreated,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/api/auth/register"
	}
	runHTTPTests(t, tests)
}

func Test_authApi_registerStartsSession(t *testing.T) {
	resetDB(t)

	body := user.NewUser{Email: "fresh@test.sa", Password: testPassword, FirstName: "Fresh", LastName: "Student", Role: user.RoleSupervisor}
	rec := serve(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var usr user.User
	decode(t, rec, &usr)
	assert.Equal(t, "fresh@test.sa", usr.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sejali.sid" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	// the requested role is ignored on self-registration
	caps, err := usrSvc.Capabilities(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, caps.Role())

	// the session cookie authenticates
	req, rec2 := newAuthRequest(t, http.MethodGet, "/api/auth/user", "", nil)
	req.AddCookie(sessionCookie)
	app.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func Test_authApi_login(t *testing.T) {
	resetDB(t)
	createUser(t, "student@test.sa", user.RoleStudent)

	tests := []httpTest{
		{name: "required fields", body: user.Credentials{}, wantCode: http.StatusBadRequest},
		{
			name:     "unknown email",
			body:     user.Credentials{Email: "nobody@test.sa", Password: testPassword},
			wantCode: http.StatusUnauthorized,
			wantErr:  "invalid email or password",
		},
		{
			name:     "wrong password",
			body:     user.Credentials{Email: "student@test.sa", Password: "wrong-password"},
			wantCode: http.StatusUnauthorized,
			wantErr:  "invalid email or password",
		},
		{name: "email is case insensitive", body: user.Credentials{Email: "Student@Test.sa", Password: testPassword}, wantCode: http.StatusOK},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/api/auth/login"
	}
	runHTTPTests(t, tests)
}

func Test_authApi_logout(t *testing.T) {
	resetDB(t)
	usr, token := createUser(t, "student@test.sa", user.RoleStudent)

	rec := serve(t, http.MethodGet, "/api/auth/user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current user.User
	decode(t, rec, &current)
	assert.Equal(t, usr.ID, current.ID)

	rec = serve(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"logged out"}`, rec.Body.String())

	runHTTPTests(t, []httpTest{
		{name: "session ended", method: http.MethodGet, path: "/api/auth/user", token: token, wantCode: http.StatusUnauthorized},
		{name: "logout is idempotent", method: http.MethodPost, path: "/api/auth/logout", token: token, wantCode: http.StatusOK},
		{name: "logout without session", method: http.MethodPost, path: "/api/auth/logout", wantCode: http.StatusOK},
		{name: "tampered token", method: http.MethodGet, path: "/api/auth/user", token: token + "x", wantCode: http.StatusUnauthorized},
	})
}

func Test_profileApi(t *testing.T) {
	resetDB(t)
	_, token := createUser(t, "student@test.sa", user.RoleStudent)

	major := "Computer Science"
	rec := serve(t, http.MethodPost, "/api/profile", token, user.ProfileUpdate{Major: &major, Skills: []string{" Go ", "SQL"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var prof user.Profile
	decode(t, rec, &prof)
	assert.Equal(t, major, prof.Major)
	assert.Equal(t, []string{"Go", "SQL"}, prof.Skills)
	assert.Equal(t, user.RoleStudent, prof.Role)
}

func Test_adminApi_capabilities(t *testing.T) {
	resetDB(t)
	student, studentToken := createUser(t, "student@test.sa", user.RoleStudent)
	_, trainerToken := createUser(t, "trainer@test.sa", user.RoleTrainer)
	supervisor, supervisorToken := createUser(t, "supervisor@test.sa", user.RoleSupervisor)

	newUser := user.NewUser{Email: "created@test.sa", Password: testPassword, FirstName: "Created", LastName: "User", Role: user.RoleTrainer}
	tests := []httpTest{
		{name: "list users: auth required", method: http.MethodGet, path: "/api/admin/users", wantCode: http.StatusUnauthorized},
		{name: "list users: student", method: http.MethodGet, path: "/api/admin/users", token: studentToken, wantCode: http.StatusForbidden, wantErr: "permission denied"},
		{name: "list users: trainer", method: http.MethodGet, path: "/api/admin/users", token: trainerToken, wantCode: http.StatusForbidden, wantErr: "permission denied"},
		{name: "list users: supervisor", method: http.MethodGet, path: "/api/admin/users", token: supervisorToken, wantCode: http.StatusOK},
		{name: "create user", method: http.MethodPost, path: "/api/admin/users", token: supervisorToken, body: newUser, wantCode: http.StatusCreated},
		{name: "create user: duplicate", method: http.MethodPost, path: "/api/admin/users", token: supervisorToken, body: newUser, wantCode: http.StatusConflict},
		{
			name: "change role: invalid", method: http.MethodPatch, path: "/api/admin/users/" + student.ID + "/role", token: supervisorToken,
			body: user.RoleChange{Role: "king"}, wantCode: http.StatusBadRequest,
		},
		{
			name: "change role", method: http.MethodPatch, path: "/api/admin/users/" + student.ID + "/role", token: supervisorToken,
			body: user.RoleChange{Role: user.RoleTrainer}, wantCode: http.StatusOK,
		},
		{
			name: "reset password: unknown user", method: http.MethodPost, path: "/api/admin/users/unknown/reset-password", token: supervisorToken,
			body: user.PasswordReset{NewPassword: "new-password"}, wantCode: http.StatusNotFound,
		},
		{
			name: "reset password", method: http.MethodPost, path: "/api/admin/users/" + student.ID + "/reset-password", token: supervisorToken,
			body: user.PasswordReset{NewPassword: "new-password"}, wantCode: http.StatusOK,
		},
		// the reset ended the student's sessions
		{name: "reset password: sessions ended", method: http.MethodGet, path: "/api/auth/user", token: studentToken, wantCode: http.StatusUnauthorized},
	}
	runHTTPTests(t, tests)

	login(t, student.Email, "new-password")

	t.Run("audited", func(t *testing.T) {
		entries := auditEntries(t, supervisorToken)
		byAction := func(action string, match func(audit.Entry) bool) audit.Entry {
			t.Helper()
			for _, e := range entries {
				if e.Action == action && match(e) {
					return e
				}
			}
			require.Failf(t, "missing audit entry", "action %s", action)
			return audit.Entry{}
		}

		created := byAction(audit.ActionAdminCreateUser, func(e audit.Entry) bool { return e.Details["email"] == newUser.Email })
		assert.Equal(t, supervisor.ID, created.ActorUserID)
		assert.Equal(t, audit.EntityUser, created.EntityType)
		assert.Equal(t, string(user.RoleTrainer), created.Details["role"])

		role := byAction(audit.ActionRoleChange, func(e audit.Entry) bool { return e.Details["targetUserId"] == student.ID })
		assert.Equal(t, supervisor.ID, role.ActorUserID)
		assert.Equal(t, audit.EntityProfile, role.EntityType)
		assert.Equal(t, string(user.RoleTrainer), role.Details["newRole"])

		reset := findAuditEntry(t, entries, audit.ActionPasswordReset, student.ID)
		assert.Equal(t, supervisor.ID, reset.ActorUserID)
		assert.Equal(t, student.Email, reset.Details["targetEmail"])
	})
}

func Test_health(t *testing.T) {
	rec := serve(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]interface{}
	decode(t, rec, &data)
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}
