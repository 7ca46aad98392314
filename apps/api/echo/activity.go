package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
)

// activityEvidenceField is the multipart field holding the evidence file of an activity.
const activityEvidenceField = "certificate"

type activityApi struct {
	svc      *activity.Service
	files    core.FileStore
	validate *validator.Validate
}

func registerActivityAPI(g *echo.Group, auth, uploads echo.MiddlewareFunc, deps *Deps) {
	api := activityApi{svc: deps.ActivitySvc, files: deps.Files, validate: deps.Validate}

	ag := g.Group("/activities", auth)
	ag.GET("", api.queryOwn)
	ag.POST("", api.create, uploads, requireCapability(studentAccess))
	ag.GET("/all", api.queryAll, requireCapability(supervisorOnly))
	ag.POST("/:id/review", api.review, requireCapability(supervisorOnly))
}

func (api *activityApi) queryOwn(ctx echo.Context) error {
	acts, err := api.svc.QueryByUser(ctx.Request().Context(), contextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) queryAll(ctx echo.Context) error {
	var filter activity.QueryFilter
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ord Ordering
	ord.Bind(ctx)

	acts, err := api.svc.Query(ctx.Request().Context(), filter, ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	url, err := saveFormFile(ctx, api.files, activityEvidenceField)
	if err != nil {
		return err
	}
	act, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx).ID, data, url)
	if err != nil {
		discardFormFile(ctx, api.files, url)
		return errors.Wrap(err, "creating activity")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *activityApi) review(ctx echo.Context) error {
	var data activity.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	act, err := api.svc.Review(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing activity")
	}
	return ctx.JSON(http.StatusOK, act)
}
