package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/report"
	"github.com/trezcool/sejali/core/user"
)

func Test_reportApi(t *testing.T) {
	resetDB(t)
	_, trainerToken := createUser(t, "trainer@test.sa", user.RoleTrainer)
	_, supervisorToken := createUser(t, "supervisor@test.sa", user.RoleSupervisor)
	createUser(t, "student@test.sa", user.RoleStudent)

	var tests []httpTest
	for _, path := range []string{
		"/api/stats",
		"/api/reports/hours-by-student",
		"/api/reports/students-by-major",
		"/api/reports/completed-courses",
		"/api/reports/approved-activities",
		"/api/audit-logs",
	} {
		tests = append(tests,
			httpTest{name: path + ": trainer", method: http.MethodGet, path: path, token: trainerToken, wantCode: http.StatusForbidden},
			httpTest{name: path + ": supervisor", method: http.MethodGet, path: path, token: supervisorToken, wantCode: http.StatusOK},
		)
	}
	runHTTPTests(t, tests)

	rec := serve(t, http.MethodGet, "/api/stats", supervisorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalStudents":1,"totalActivities":0,"totalApproved":0,"totalCourses":0}`, rec.Body.String())
}

func Test_reportApi_contents(t *testing.T) {
	resetDB(t)
	trainer, _ := createUser(t, "trainer@test.sa", user.RoleTrainer)
	_, supervisorToken := createUser(t, "supervisor@test.sa", user.RoleSupervisor)
	volunteer, volunteerToken := createUser(t, "volunteer@test.sa", user.RoleStudent)
	major, majorToken := createUser(t, "major@test.sa", user.RoleStudent)
	c := createCourse(t, trainer.ID, true)

	submit := func(t *testing.T, hours string) activity.Activity {
		t.Helper()
		fields := activityFields()
		fields["hours"] = hours
		req, rec := newActivityForm(t, volunteerToken, fields, "", nil)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var act activity.Activity
		decode(t, rec, &act)
		return act
	}
	approved := submit(t, "12")
	submit(t, "5")
	rec := serve(t, http.MethodPost, "/api/activities/"+approved.ID+"/review", supervisorToken, activity.Review{Action: activity.ReviewApprove})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cs := "Computer Science"
	rec = serve(t, http.MethodPost, "/api/profile", majorToken, user.ProfileUpdate{Major: &cs})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, http.MethodPost, "/api/enrollments", volunteerToken, enrollment.NewEnrollment{CourseID: c.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = serve(t, http.MethodPost, "/api/courses/"+c.ID+"/complete", volunteerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("stats", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/stats", supervisorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"totalStudents":2,"totalActivities":2,"totalApproved":1,"totalCourses":1}`, rec.Body.String())
	})

	t.Run("hours by student", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/reports/hours-by-student", supervisorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []report.StudentHours
		decode(t, rec, &rows)
		require.Len(t, rows, 4)

		byUser := make(map[string]report.StudentHours, len(rows))
		for _, r := range rows {
			byUser[r.UserID] = r
		}
		assert.Equal(t, report.StudentHours{
			UserID:             volunteer.ID,
			UserName:           "Test student",
			Major:              report.Placeholder,
			TotalHours:         12,
			ApprovedActivities: 1,
		}, byUser[volunteer.ID])
		assert.Equal(t, report.StudentHours{
			UserID:   major.ID,
			UserName: "Test student",
			Major:    cs,
		}, byUser[major.ID])
		assert.Equal(t, 0, byUser[trainer.ID].TotalHours)
	})

	t.Run("students by major", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/reports/students-by-major", supervisorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []report.MajorCount
		decode(t, rec, &rows)
		assert.ElementsMatch(t, []report.MajorCount{
			{Major: cs, Count: 1},
			{Major: report.Placeholder, Count: 3},
		}, rows)
	})

	t.Run("completed courses", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/reports/completed-courses", supervisorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []report.CourseCompletions
		decode(t, rec, &rows)
		assert.Equal(t, []report.CourseCompletions{{CourseID: c.ID, CourseName: c.TitleAr, CompletedCount: 1}}, rows)
	})

	t.Run("approved activities", func(t *testing.T) {
		rec := serve(t, http.MethodGet, "/api/reports/approved-activities", supervisorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rows []report.ActivityTypeTotals
		decode(t, rec, &rows)
		assert.Equal(t, []report.ActivityTypeTotals{{Type: string(activity.TypeVolunteerWork), Count: 1, TotalHours: 12}}, rows)
	})
}
