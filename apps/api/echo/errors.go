package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/assistant"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// domainErrors maps the domain sentinel errors to their HTTP response.
var domainErrors = map[error]int{
	user.ErrNotFound:               http.StatusNotFound,
	user.ErrEmailExists:            http.StatusConflict,
	activity.ErrNotFound:           http.StatusNotFound,
	activity.ErrAlreadyReviewed:    http.StatusBadRequest,
	course.ErrNotFound:             http.StatusNotFound,
	course.ErrLessonNotFound:       http.StatusNotFound,
	course.ErrQuizNotFound:         http.StatusNotFound,
	course.ErrSubmissionNotFound:   http.StatusNotFound,
	enrollment.ErrNotFound:         http.StatusNotFound,
	enrollment.ErrAlreadyEnrolled:  http.StatusConflict,
	enrollment.ErrAlreadyCompleted: http.StatusBadRequest,
	certificate.ErrNotFound:        http.StatusNotFound,
	assistant.ErrNotConfigured:     http.StatusServiceUnavailable,
	user.ErrInvalidCredentials:     http.StatusUnauthorized,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = echo.Map{"error": core.Translate(origErr, translator)}
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = echo.Map{"error": fldErrs}
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if status, ok := domainErrors[cause]; ok {
				code = status
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg), map[string]interface{}{
				"method":    ctx.Request().Method,
				"path":      ctx.Path(),
				"requestId": ctx.Response().Header().Get(echo.HeaderXRequestID),
			}}
			if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
				args = append(args, usr)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			if ctx.Echo().Debug && code == http.StatusInternalServerError {
				m = err.Error()
			}
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
