package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
)

var errAcctNotFoundInCtx = errors.New("account object not found in echo.Context")

type accountApi struct {
	svc      account.ServiceInterface
	auth     *jwtAuth
	validate *validator.Validate
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := accountApi{
		svc:      deps.AccountSvc,
		auth:     auth,
		validate: deps.Validate,
	}

	ag := g.Group("/accounts")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)

	// authed endpoints
	authed := ag.Group("", jwt)
	authed.POST("/token-refresh", api.refreshToken)
	authed.GET("", api.query, ownerMiddleware(auth))
	authed.POST("", api.create, ownerMiddleware(auth))

	// detail endpoints
	dg := authed.Group("/:id", ctxAccountOrOwnerMiddleware(auth))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, ownerMiddleware(auth))
}

// Handlers

// register is public signup; privileged roles cannot be self-assigned.
func (api *accountApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if data.Role == account.RoleSchoolAdmin || data.Role == account.RoleOwner {
		return errHttpForbidden
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	acct, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, acct)
}

// create lets the owner provision any account, school administrators included.
func (api *accountApi) create(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	acct, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, acct)
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) query(ctx echo.Context) error {
	accounts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accounts == nil {
		accounts = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, accounts)
}

func (api *accountApi) retrieve(ctx echo.Context) error {
	acct, ok := ctx.Get("object").(account.Account)
	if !ok {
		return errors.Wrap(errAcctNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) update(ctx echo.Context) error {
	acct, ok := ctx.Get("object").(account.Account)
	if !ok {
		return errors.Wrap(errAcctNotFoundInCtx, "retrieving object from context")
	}

	var data account.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}

	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	// `IsActive` can only be changed by the owner
	if !sess.Account.IsOwner() && data.IsActive != nil {
		return errHttpForbidden
	}

	if err := data.Validate(api.validate, acct); err != nil {
		return err
	}

	acct, err = api.svc.Update(ctx.Request().Context(), acct.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) destroy(ctx echo.Context) error {
	acct, ok := ctx.Get("object").(account.Account)
	if !ok {
		return errors.Wrap(errAcctNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! the owner cannot delete themselves
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	if acct.ID == sess.Account.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), acct.ID); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxAccountOrOwnerMiddleware resolves the :id account into the context for
// the target account itself or the platform owner; anyone else gets a 404.
func ctxAccountOrOwnerMiddleware(auth *jwtAuth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := auth.contextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}

			if ctx.Param("id") == sess.Account.ID || sess.Account.IsOwner() {
				if acct, err := auth.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", acct)
					return next(ctx)
				} else if errors.Cause(err) != account.ErrNotFound {
					return errors.Wrap(err, "finding account by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
