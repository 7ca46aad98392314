package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/enrollment"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := enrollmentApi{svc: deps.EnrollmentSvc, validate: deps.Validate}
	student := requireCapability(studentAccess)

	g.GET("/enrollments", api.queryOwn, auth)
	g.POST("/enrollments", api.enroll, auth, student)
	g.POST("/lessons/:id/complete", api.completeLesson, auth, student)
	g.GET("/courses/:id/progress", api.progress, auth)
	g.POST("/courses/:id/complete", api.completeCourse, auth)
}

func (api *enrollmentApi) queryOwn(ctx echo.Context) error {
	enrs, err := api.svc.QueryByUser(ctx.Request().Context(), contextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), contextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) completeLesson(ctx echo.Context) error {
	lp, err := api.svc.CompleteLesson(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing lesson")
	}
	return ctx.JSON(http.StatusOK, lp)
}

func (api *enrollmentApi) progress(ctx echo.Context) error {
	lps, err := api.svc.Progress(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	return ctx.JSON(http.StatusOK, lps)
}

func (api *enrollmentApi) completeCourse(ctx echo.Context) error {
	res, err := api.svc.CompleteCourse(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing course")
	}
	return ctx.JSON(http.StatusOK, res)
}
