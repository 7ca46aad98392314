package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/user"
)

type (
	authApi struct {
		srv      *Server
		svc      *user.Service
		validate *validator.Validate
	}

	profileApi struct {
		svc      *user.Service
		validate *validator.Validate
	}

	adminApi struct {
		svc        *user.Service
		certSvc    *certificate.Service
		validate   *validator.Validate
		translator ut.Translator
	}
)

func registerAuthAPI(g *echo.Group, auth, limiter echo.MiddlewareFunc, srv *Server) {
	api := authApi{
		srv:      srv,
		svc:      srv.deps.UserSvc,
		validate: srv.deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/register", api.register, limiter)
	ag.POST("/login", api.login, limiter)
	ag.POST("/logout", api.logout)

	// authed endpoints
	ag.GET("/user", api.currentUser, auth)
}

func registerProfileAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := profileApi{svc: deps.UserSvc, validate: deps.Validate}

	pg := g.Group("/profile", auth)
	pg.GET("", api.retrieve)
	pg.POST("", api.update)
}

func registerAdminAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := adminApi{
		svc:        deps.UserSvc,
		certSvc:    deps.CertificateSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/admin", auth, requireCapability(supervisorOnly))
	ag.GET("/users", api.queryUsers)
	ag.POST("/users", api.createUser)
	ag.PATCH("/users/:id/role", api.changeRole)
	ag.POST("/users/:id/reset-password", api.resetPassword)
	ag.POST("/issue-certificate", api.issueCertificate)
}

// Auth handlers

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	if _, err = api.srv.startSession(ctx, usr); err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.srv.startSession(ctx, usr)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	ctx.Response().Header().Set(echo.HeaderAuthorization, bearerPrefix+token)
	return ctx.JSON(http.StatusOK, usr)
}

// logout is idempotent: an unknown or missing session still logs out.
func (api *authApi) logout(ctx echo.Context) error {
	if token, _ := requestToken(ctx); token != "" {
		if sid, err := api.srv.tokens.parse(token); err == nil {
			if err = api.srv.deps.Sessions.End(ctx.Request().Context(), sid); err != nil {
				return errors.Wrap(err, "ending session")
			}
		}
	}
	api.srv.clearSessionCookie(ctx)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (api *authApi) currentUser(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextUser(ctx))
}

// Profile handlers

func (api *profileApi) retrieve(ctx echo.Context) error {
	prof, err := api.svc.GetProfile(ctx.Request().Context(), contextUser(ctx).ID)
	if err != nil {
		if errors.Cause(err) == user.ErrProfileNotFound {
			return ctx.JSON(http.StatusOK, nil)
		}
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) update(ctx echo.Context) error {
	var data user.ProfileUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prof, err := api.svc.UpdateProfile(ctx.Request().Context(), contextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

// Admin handlers

func (api *adminApi) queryUsers(ctx echo.Context) error {
	users, err := api.svc.QueryWithProfiles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.CreateByAdmin(ctx.Request().Context(), contextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) changeRole(ctx echo.Context) error {
	var data user.RoleChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RoleChange")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prof, err := api.svc.ChangeRole(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"), data.Role)
	if err != nil {
		return errors.Wrap(err, "changing role")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *adminApi) resetPassword(ctx echo.Context) error {
	var data user.PasswordReset
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordReset")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), contextUser(ctx).ID, ctx.Param("id"), data.NewPassword); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "password reset"})
}

func (api *adminApi) issueCertificate(ctx echo.Context) error {
	var data certificate.ManualIssue
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManualIssue")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cert, err := api.certSvc.IssueManually(ctx.Request().Context(), contextUser(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "issuing certificate")
	}
	return ctx.JSON(http.StatusCreated, cert)
}
