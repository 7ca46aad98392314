package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/assistant"
	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/report"
	"github.com/trezcool/sejali/core/session"
	"github.com/trezcool/sejali/core/user"
	uploadsvc "github.com/trezcool/sejali/services/upload"
)

// uploadBodyLimit is the upload size limit plus room for the other form fields.
const uploadBodyLimit = "11M"

type (
	// Deps are the services the API handlers depend on.
	Deps struct {
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		Sessions    *session.Manager
		Files       core.FileStore
		StatusCheck func(ctx context.Context) error

		UserSvc        *user.Service
		AuditSvc       *audit.Service
		ActivitySvc    *activity.Service
		CourseSvc      *course.Service
		EnrollmentSvc  *enrollment.Service
		CertificateSvc *certificate.Service
		ReportSvc      *report.Service
		AssistantSvc   *assistant.Service
	}

	Server struct {
		conf     *core.Config
		deps     *Deps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
		tokens   tokenSigner
	}
)

func NewServer(conf *core.Config, shutdown chan os.Signal, deps *Deps) *Server {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
	}
	s := &Server{
		conf:     conf,
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: shutdown,
		tokens:   tokenSigner{key: []byte(conf.SecretKey)},
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.conf.Server.AllowOrigins,
		AllowCredentials: true,
	}))
	if s.conf.Server.RequestTimeout > 0 {
		s.app.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Skipper: func(ctx echo.Context) bool { return ctx.Path() == "/api/ai/chat" },
			Timeout: s.conf.Server.RequestTimeout,
		}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug && !s.conf.TestMode

	s.app.Static(uploadsvc.URLPrefix, s.conf.UploadDir)

	api := s.app.Group("/api")
	api.GET("/health", s.health)

	auth := s.authenticate
	uploads := middleware.BodyLimit(uploadBodyLimit)
	var authLimiter echo.MiddlewareFunc = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if s.conf.Server.AuthRateLimit > 0 {
		authLimiter = middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(s.conf.Server.AuthRateLimit)))
	}

	registerAuthAPI(api, auth, authLimiter, s)
	registerProfileAPI(api, auth, s.deps)
	registerAdminAPI(api, auth, s.deps)
	registerActivityAPI(api, auth, uploads, s.deps)
	registerCourseAPI(api, auth, uploads, s.deps)
	registerEnrollmentAPI(api, auth, s.deps)
	registerCertificateAPI(api, auth, s.deps)
	registerReportAPI(api, auth, s.deps)
	registerAssistantAPI(api, auth, s.deps)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports the error that stopped the server from listening.
func (s *Server) Errors() <-chan error { return s.errors }

// ShutdownSignal is notified on SIGINT, SIGTERM, or when a handler hits a shutdown error.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	if s.deps.StatusCheck != nil {
		if err := s.deps.StatusCheck(ctx.Request().Context()); err != nil {
			s.deps.Logger.Warn("health check: database unreachable", err)
			return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "timestamp": time.Now().UTC()})
}
