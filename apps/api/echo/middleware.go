package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/sejali/core/user"
)

// capability is one of the user.Capabilities predicates.
type capability func(user.Capabilities) bool

var (
	supervisorOnly capability = user.Capabilities.IsSupervisor
	trainerOnly    capability = user.Capabilities.IsTrainer
	studentAccess  capability = user.Capabilities.CanStudentAccess
)

// requireCapability rejects the request with 403 unless the principal holds the capability.
// It must run after authenticate.
func requireCapability(can capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !can(contextCaps(ctx)) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
