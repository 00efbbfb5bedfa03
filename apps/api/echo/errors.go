package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/user"
)

const statusNotOK = "Not OK"

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type (
	// FieldErrorResponse locates one invalid value of a request payload.
	FieldErrorResponse struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	}

	ValidationErrorResponse struct {
		Status string               `json:"status"`
		Error  []FieldErrorResponse `json:"error"`
	}
)

func newValidationErrorResponse(fldErrs []core.FieldError) ValidationErrorResponse {
	resp := ValidationErrorResponse{Status: statusNotOK, Error: make([]FieldErrorResponse, 0, len(fldErrs))}
	for _, fe := range fldErrs {
		resp.Error = append(resp.Error, FieldErrorResponse{Path: fe.Field, Message: fe.Error})
	}
	return resp
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors, *core.ValidationError:
			fldErrs, _ := validationFieldErrors(origErr, translator)
			code = http.StatusBadRequest
			message = newValidationErrorResponse(fldErrs)
		case *payloadError:
			code = http.StatusBadRequest
			message = newValidationErrorResponse(origErr.fieldErrors(translator))
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			req := ctx.Request()
			fields := core.LogFields{"method": req.Method, "route": ctx.Path(), "uri": req.RequestURI}
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr := user.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: claims.Role}
				logger.Error(msg, errors.Wrap(err, msg), fields, usr)
			} else {
				logger.Error(msg, errors.Wrap(err, msg), fields)
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			if ctx.Echo().Debug {
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
