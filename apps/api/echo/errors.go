package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/school"
	"github.com/trezcool/lopay/core/session"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "account not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

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
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.PartialCascadeError:
			code = http.StatusInternalServerError
			message = origErr.Error()
			logger.Error(origErr.Error(), origErr)
		default:
			switch origErr {
			case account.ErrNotFound, school.ErrNotFound, enrollment.ErrNotFound,
				ledger.ErrNotFound, notification.ErrNotFound:
				code = http.StatusNotFound
				message = origErr.Error()
			case school.ErrFeeNotPublished:
				code = http.StatusBadRequest
				message = origErr.Error()
			case ledger.ErrAlreadyResolved:
				code = http.StatusConflict
				message = origErr.Error()
			case ledger.ErrPermissionDenied, session.ErrNotOwner:
				code = http.StatusForbidden
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var acct account.Account
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					acct.ID = claims.Subject
					acct.Name = claims.Name
					acct.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), acct)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
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
