package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core/account"
)

// ownerMiddleware only lets the platform owner's own account through,
// regardless of any acting role.
func ownerMiddleware(auth *jwtAuth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := auth.contextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if sess.Account.IsOwner() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// schoolScopedMiddleware lets through sessions whose effective role manages a
// school: a school administrator, or the owner (impersonating one or not).
func schoolScopedMiddleware(auth *jwtAuth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := auth.contextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if sess.Role == account.RoleSchoolAdmin || sess.IsUnscopedOwner() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
