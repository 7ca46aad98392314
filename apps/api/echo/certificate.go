package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/certificate"
)

type certificateApi struct {
	svc *certificate.Service
}

func registerCertificateAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := certificateApi{svc: deps.CertificateSvc}

	cg := g.Group("/certificates")
	cg.GET("/verify/:code", api.verify) // public
	cg.GET("", api.queryOwn, auth)
	cg.GET("/:id/user", api.holder, auth)
}

func (api *certificateApi) queryOwn(ctx echo.Context) error {
	certs, err := api.svc.QueryByUser(ctx.Request().Context(), contextUser(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "querying certificates")
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *certificateApi) verify(ctx echo.Context) error {
	v, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "verifying certificate")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *certificateApi) holder(ctx echo.Context) error {
	usr, ok, err := api.svc.Holder(ctx.Request().Context(), contextCaps(ctx), contextUser(ctx).ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting certificate holder")
	}
	if !ok {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, usr)
}
