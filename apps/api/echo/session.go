package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/school"
	"github.com/trezcool/lopay/core/session"
)

type sessionApi struct {
	schoolSvc *school.Service
	auth      *jwtAuth
	conf      *core.Config
	validate  *validator.Validate
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := sessionApi{
		schoolSvc: deps.SchoolSvc,
		auth:      auth,
		conf:      deps.Conf,
		validate:  deps.Validate,
	}

	sg := g.Group("/session", jwt)
	sg.GET("", api.retrieve)
	sg.POST("/acting-role", api.enterActingRole)
	sg.DELETE("/acting-role", api.exitActingRole)
}

// Handlers

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess, ""))
}

// enterActingRole switches the owner's acting role/scope and returns a fresh
// token carrying the new state. A requested school view without a resolvable
// school silently degrades per session.EnterImpersonation.
func (api *sessionApi) enterActingRole(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data ActingRoleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActingRoleRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	schools, err := api.schoolSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if err := sess.EnterImpersonation(data.Role, data.SchoolID, data.AccountID, schools); err != nil {
		return err
	}

	token, err := api.auth.GenerateToken(GetSessionClaims(api.conf, sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess, token))
}

func (api *sessionApi) exitActingRole(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	sess.ExitImpersonation()

	token, err := api.auth.GenerateToken(GetSessionClaims(api.conf, sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(sess, token))
}

type (
	ActingRoleRequest struct {
		Role      string `json:"role" validate:"required"`
		SchoolID  string `json:"school_id"`
		AccountID string `json:"account_id"`
	}

	SessionResponse struct {
		AccountID             string `json:"account_id"`
		Role                  string `json:"role"`
		SchoolID              string `json:"school_id,omitempty"`
		ImpersonatedAccountID string `json:"impersonated_account_id,omitempty"`
		Impersonating         bool   `json:"impersonating"`
		Token                 string `json:"token,omitempty"`
	}
)

func newSessionResponse(sess session.Session, token string) SessionResponse {
	return SessionResponse{
		AccountID:             sess.Account.ID,
		Role:                  sess.Role,
		SchoolID:              sess.SchoolID,
		ImpersonatedAccountID: sess.ImpersonatedAccountID,
		Impersonating:         sess.IsImpersonating(),
		Token:                 token,
	}
}
