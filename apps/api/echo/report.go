package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/report"
)

type reportApi struct {
	svc      *report.Service
	auditSvc *audit.Service
}

func registerReportAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := reportApi{svc: deps.ReportSvc, auditSvc: deps.AuditSvc}
	supervisor := requireCapability(supervisorOnly)

	g.GET("/stats", api.stats, auth, supervisor)
	g.GET("/audit-logs", api.auditLogs, auth, supervisor)

	rg := g.Group("/reports", auth, supervisor)
	rg.GET("/hours-by-student", api.hoursByStudent)
	rg.GET("/students-by-major", api.studentsByMajor)
	rg.GET("/completed-courses", api.completedCourses)
	rg.GET("/approved-activities", api.approvedActivities)
}

func (api *reportApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *reportApi) hoursByStudent(ctx echo.Context) error {
	rows, err := api.svc.HoursByStudent(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reporting hours by student")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *reportApi) studentsByMajor(ctx echo.Context) error {
	rows, err := api.svc.StudentsByMajor(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reporting students by major")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *reportApi) completedCourses(ctx echo.Context) error {
	rows, err := api.svc.CompletedCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reporting completed courses")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *reportApi) approvedActivities(ctx echo.Context) error {
	rows, err := api.svc.ApprovedActivities(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reporting approved activities")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *reportApi) auditLogs(ctx echo.Context) error {
	entries, err := api.auditSvc.Recent(ctx.Request().Context(), audit.DefaultLimit)
	if err != nil {
		return errors.Wrap(err, "querying audit logs")
	}
	return ctx.JSON(http.StatusOK, entries)
}
