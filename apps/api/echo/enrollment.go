package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/billing"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/school"
	"github.com/trezcool/lopay/core/scope"
	"github.com/trezcool/lopay/core/session"
)

type enrollmentApi struct {
	svc       *enrollment.Service
	schoolSvc *school.Service
	auth      *jwtAuth
	conf      *core.Config
	validate  *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := enrollmentApi{
		svc:       deps.EnrollmentSvc,
		schoolSvc: deps.SchoolSvc,
		auth:      auth,
		conf:      deps.Conf,
		validate:  deps.Validate,
	}

	eg := g.Group("/enrollments", jwt)
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.POST("/quote", api.quote)
	eg.GET("/defaulters", api.defaulters, schoolScopedMiddleware(auth))
	eg.GET("/:id", api.retrieve)
	eg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *enrollmentApi) query(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	all, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, scope.Enrollments(sess, all))
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Create(ctx.Request().Context(), sess.EffectiveAccountID(), data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

// quote prices a prospective enrollment without creating anything.
func (api *enrollmentApi) quote(ctx echo.Context) error {
	var data QuoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuoteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	totalFee, err := api.schoolSvc.FeeFor(ctx.Request().Context(), data.SchoolID, data.Grade)
	if err != nil {
		return errors.Wrap(err, "getting fee")
	}
	q, err := billing.QuotePlan(totalFee, data.FeeType, api.conf.Billing)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *enrollmentApi) defaulters(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	defaulters, err := api.svc.Defaulters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying defaulters")
	}
	return ctx.JSON(http.StatusOK, scope.Enrollments(sess, defaulters))
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	enr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	if !sessionSeesEnrollment(sess, enr) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) destroy(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	enr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	if !sess.Account.IsOwner() && enr.OwnerID != sess.EffectiveAccountID() {
		return errHttpNotFound
	}

	if err := api.svc.Delete(ctx.Request().Context(), enr.ID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func sessionSeesEnrollment(sess session.Session, enr enrollment.Enrollment) bool {
	if sess.IsUnscopedOwner() {
		return true
	}
	if sess.Role == account.RoleSchoolAdmin {
		return sess.SchoolID != "" && enr.SchoolID == sess.SchoolID
	}
	return enr.OwnerID == sess.EffectiveAccountID()
}

type QuoteRequest struct {
	SchoolID string          `json:"school_id" validate:"required"`
	Grade    string          `json:"grade" validate:"required"`
	FeeType  billing.FeeType `json:"fee_type" validate:"required"`
}

func (qr *QuoteRequest) Validate(validate *validator.Validate) error {
	qr.Grade = core.CleanString(qr.Grade)
	return validate.Struct(qr)
}
