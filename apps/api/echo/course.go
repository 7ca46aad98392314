package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/course"
)

// projectFileField is the multipart field holding the file of a project submission.
const projectFileField = "project"

type courseApi struct {
	svc      *course.Service
	files    core.FileStore
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, auth, uploads echo.MiddlewareFunc, deps *Deps) {
	api := courseApi{svc: deps.CourseSvc, files: deps.Files, validate: deps.Validate}
	trainer := requireCapability(trainerOnly)

	cg := g.Group("/courses", auth)
	cg.GET("", api.queryPublished)
	cg.POST("", api.create, trainer)
	cg.GET("/all", api.queryAll, trainer)
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.update, trainer)
	cg.DELETE("/:id", api.delete, trainer)

	cg.GET("/:id/lessons", api.queryLessons)
	cg.POST("/:id/lessons", api.createLesson, trainer)
	cg.GET("/:id/quizzes", api.queryQuizzes)
	cg.POST("/:id/quizzes", api.createQuiz, trainer)
	cg.GET("/:id/projects", api.querySubmissions, trainer)
	cg.POST("/:id/projects", api.submitProject, uploads)

	g.DELETE("/lessons/:id", api.deleteLesson, auth, trainer)

	qg := g.Group("/quizzes", auth)
	qg.GET("/:id/questions", api.queryQuestions)
	qg.POST("/:id/questions", api.createQuestion, trainer)
	qg.POST("/:id/attempt", api.attempt)
	qg.GET("/:id/attempts", api.queryAttempts)

	g.POST("/projects/:id/grade", api.gradeSubmission, auth, trainer)
}

// Courses

func (api *courseApi) queryPublished(ctx echo.Context) error {
	courses, err := api.svc.QueryPublished(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) queryAll(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Request().Context(), contextCaps(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.CourseUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) delete(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "course deleted"})
}

// Lessons

func (api *courseApi) queryLessons(ctx echo.Context) error {
	lessons, err := api.svc.QueryLessons(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) createLesson(ctx echo.Context) error {
	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lesson, err := api.svc.CreateLesson(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lesson)
}

func (api *courseApi) deleteLesson(ctx echo.Context) error {
	if err := api.svc.DeleteLesson(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "lesson deleted"})
}

// Quizzes

func (api *courseApi) queryQuizzes(ctx echo.Context) error {
	quizzes, err := api.svc.QueryQuizzes(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *courseApi) createQuiz(ctx echo.Context) error {
	var data course.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	quiz, err := api.svc.CreateQuiz(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, quiz)
}

func (api *courseApi) queryQuestions(ctx echo.Context) error {
	questions, err := api.svc.QueryQuestions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *courseApi) createQuestion(ctx echo.Context) error {
	var data course.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	question, err := api.svc.CreateQuestion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, question)
}

func (api *courseApi) attempt(ctx echo.Context) error {
	var data course.NewAttempt
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttempt")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.Attempt(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "attempting quiz")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *courseApi) queryAttempts(ctx echo.Context) error {
	atts, err := api.svc.QueryAttempts(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	return ctx.JSON(http.StatusOK, atts)
}

// Projects

func (api *courseApi) querySubmissions(ctx echo.Context) error {
	subs, err := api.svc.QuerySubmissions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *courseApi) submitProject(ctx echo.Context) error {
	var data course.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	if _, err := api.svc.Find(rctx, ctx.Param("id")); err != nil {
		return err
	}
	url, err := saveFormFile(ctx, api.files, projectFileField)
	if err != nil {
		return err
	}
	sub, err := api.svc.Submit(rctx, contextUser(ctx).ID, ctx.Param("id"), data, url)
	if err != nil {
		discardFormFile(ctx, api.files, url)
		return errors.Wrap(err, "submitting project")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *courseApi) gradeSubmission(ctx echo.Context) error {
	var data course.Grade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.GradeSubmission(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
