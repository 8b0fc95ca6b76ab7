package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/scope"
)

type paymentApi struct {
	eng      *ledger.Engine
	auth     *jwtAuth
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := paymentApi{
		eng:      deps.LedgerEng,
		auth:     auth,
		validate: deps.Validate,
	}

	pg := g.Group("/payments", jwt)
	pg.GET("", api.query)
	pg.GET("/pending", api.queryPending, schoolScopedMiddleware(auth))
	pg.POST("", api.submit)
	pg.POST("/direct", api.directPay)
	pg.PUT("/:id/approve", api.approve, schoolScopedMiddleware(auth))
	pg.PUT("/:id/decline", api.decline, schoolScopedMiddleware(auth))
}

// Handlers

func (api *paymentApi) query(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	all, err := api.eng.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	return ctx.JSON(http.StatusOK, scope.Transactions(sess, all))
}

// queryPending lists the verification backlog for the session's school.
func (api *paymentApi) queryPending(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	all, err := api.eng.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	pending := make([]ledger.Transaction, 0)
	for _, txn := range scope.Transactions(sess, all) {
		if txn.Status == ledger.TxPending {
			pending = append(pending, txn)
		}
	}
	return ctx.JSON(http.StatusOK, pending)
}

func (api *paymentApi) submit(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data SubmitPaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitPaymentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	txn, err := api.eng.Submit(ctx.Request().Context(), sess.EffectiveAccountID(), data.EnrollmentID, data.Amount, data.ReceiptURL)
	if err != nil {
		return errors.Wrap(err, "submitting payment")
	}
	return ctx.JSON(http.StatusCreated, txn)
}

func (api *paymentApi) directPay(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data DirectPaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DirectPaymentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	txn, err := api.eng.DirectPay(ctx.Request().Context(), sess.EffectiveAccountID(), data.EnrollmentID, data.Amount)
	if err != nil {
		return errors.Wrap(err, "recording direct payment")
	}
	return ctx.JSON(http.StatusCreated, txn)
}

func (api *paymentApi) approve(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	txn, err := api.eng.Approve(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving payment")
	}
	return ctx.JSON(http.StatusOK, txn)
}

func (api *paymentApi) decline(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	txn, err := api.eng.Decline(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "declining payment")
	}
	return ctx.JSON(http.StatusOK, txn)
}

type (
	SubmitPaymentRequest struct {
		EnrollmentID string  `json:"enrollment_id" validate:"required"`
		Amount       float64 `json:"amount" validate:"required,gt=0"`
		ReceiptURL   string  `json:"receipt_url"`
	}

	DirectPaymentRequest struct {
		EnrollmentID string  `json:"enrollment_id" validate:"required"`
		Amount       float64 `json:"amount" validate:"required,gt=0"`
	}
)
