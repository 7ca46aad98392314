package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/user"
)

func Test_courseApi_visibility(t *testing.T) {
	resetDB(t)
	trainer, trainerToken := createUser(t, "trainer@test.sa", user.RoleTrainer)
	_, studentToken := createUser(t, "student@test.sa", user.RoleStudent)
	draft := createCourse(t, trainer.ID, false)

	tests := []httpTest{
		{name: "student cannot create", method: http.MethodPost, path: "/api/courses", token: studentToken, body: course.NewCourse{}, wantCode: http.StatusForbidden},
		{name: "trainer: required fields", method: http.MethodPost, path: "/api/courses", token: trainerToken, body: course.NewCourse{}, wantCode: http.StatusBadRequest},
		{
			name: "trainer creates", method: http.MethodPost, path: "/api/courses", token: trainerToken,
			body: course.NewCourse{TitleAr: "قواعد البيانات", Category: "data", Duration: 8}, wantCode: http.StatusCreated,
		},
		{name: "student: draft hidden", method: http.MethodGet, path: "/api/courses/" + draft.ID, token: studentToken, wantCode: http.StatusNotFound},
		{name: "trainer: draft visible", method: http.MethodGet, path: "/api/courses/" + draft.ID, token: trainerToken, wantCode: http.StatusOK},
		{name: "student cannot list all", method: http.MethodGet, path: "/api/courses/all", token: studentToken, wantCode: http.StatusForbidden},
		{name: "unknown course", method: http.MethodGet, path: "/api/courses/unknown", token: trainerToken, wantCode: http.StatusNotFound},
	}
	runHTTPTests(t, tests)

	rec := serve(t, http.MethodGet, "/api/courses", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var published []course.Course
	decode(t, rec, &published)
	require.Len(t, published, 1)
	assert.Equal(t, trainer.ID, published[0].InstructorID)
}

func Test_courseApi_quizAttempt(t *testing.T) {
	resetDB(t)
	trainer, trainerToken := createUser(t, "trainer@test.sa", user.RoleTrainer)
	_, studentToken := createUser(t, "student@test.sa", user.RoleStudent)
	c := createCourse(t, trainer.ID, true)

	rec := serve(t, http.MethodPost, "/api/courses/"+c.ID+"/quizzes", trainerToken, course.NewQuiz{TitleAr: "اختبار", PassingScore: 50})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var quiz course.Quiz
	decode(t, rec, &quiz)

	options := []course.Option{{TextAr: "أ", TextEn: "a"}, {TextAr: "ب", TextEn: "b"}}
	for i := 0; i < 2; i++ {
		rec = serve(t, http.MethodPost, "/api/quizzes/"+quiz.ID+"/questions", trainerToken, course.NewQuestion{
			QuestionAr:    "سؤال",
			Options:       options,
			CorrectAnswer: 1,
			OrderIndex:    i,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	runHTTPTests(t, []httpTest{
		{
			name: "correct answer out of range", method: http.MethodPost, path: "/api/quizzes/" + quiz.ID + "/questions", token: trainerToken,
			body: course.NewQuestion{QuestionAr: "سؤال", Options: options, CorrectAnswer: 2}, wantCode: http.StatusBadRequest,
		},
		{name: "unknown quiz", method: http.MethodPost, path: "/api/quizzes/unknown/attempt", token: studentToken, body: course.NewAttempt{Answers: []int{1}}, wantCode: http.StatusNotFound},
	})

	rec = serve(t, http.MethodPost, "/api/quizzes/"+quiz.ID+"/attempt", studentToken, course.NewAttempt{Answers: []int{1}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var att course.Attempt
	decode(t, rec, &att)
	assert.Equal(t, 50, att.Score) // the missing answer counts as wrong
	assert.True(t, att.Passed)

	rec = serve(t, http.MethodGet, "/api/quizzes/"+quiz.ID+"/attempts", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var atts []course.Attempt
	decode(t, rec, &atts)
	assert.Len(t, atts, 1)
}

func Test_courseApi_submitProject(t *testing.T) {
	resetDB(t)
	trainer, trainerToken := createUser(t, "trainer@test.sa", user.RoleTrainer)
	_, studentToken := createUser(t, "student@test.sa", user.RoleStudent)
	c := createCourse(t, trainer.ID, true)
	fields := map[string]string{"titleAr": "مشروع التخرج"}
	zipHeader := []byte("PK\x03\x04project")

	t.Run("unknown course stores nothing", func(t *testing.T) {
		before := countUploads(t)
		req, rec := newUploadForm(t, "/api/courses/no-such-course/projects", studentToken, "project", fields, "p.zip", zipHeader)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
		assert.Equal(t, before, countUploads(t))
	})

	t.Run("missing title stores nothing", func(t *testing.T) {
		before := countUploads(t)
		req, rec := newUploadForm(t, "/api/courses/"+c.ID+"/projects", studentToken, "project", nil, "p.zip", zipHeader)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Equal(t, before, countUploads(t))
	})

	var sub course.Submission
	t.Run("submitted", func(t *testing.T) {
		before := countUploads(t)
		req, rec := newUploadForm(t, "/api/courses/"+c.ID+"/projects", studentToken, "project", fields, "p.zip", zipHeader)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &sub)
		assert.True(t, strings.HasSuffix(sub.FileURL, "-p.zip"), sub.FileURL)
		assert.Equal(t, before+1, countUploads(t))
	})

	grade := 90
	runHTTPTests(t, []httpTest{
		{name: "student cannot list", method: http.MethodGet, path: "/api/courses/" + c.ID + "/projects", token: studentToken, wantCode: http.StatusForbidden},
		{name: "student cannot grade", method: http.MethodPost, path: "/api/projects/" + sub.ID + "/grade", token: studentToken, body: course.Grade{Grade: &grade}, wantCode: http.StatusForbidden},
		{name: "graded", method: http.MethodPost, path: "/api/projects/" + sub.ID + "/grade", token: trainerToken, body: course.Grade{Grade: &grade, Feedback: "well done"}, wantCode: http.StatusOK},
	})

	rec := serve(t, http.MethodGet, "/api/courses/"+c.ID+"/projects", trainerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var subs []course.Submission
	decode(t, rec, &subs)
	require.Len(t, subs, 1)
	if assert.NotNil(t, subs[0].Grade) {
		assert.Equal(t, 90, *subs[0].Grade)
	}
	assert.Equal(t, trainer.ID, subs[0].ReviewedBy)
}
