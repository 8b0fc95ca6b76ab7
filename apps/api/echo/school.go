package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/school"
)

type schoolApi struct {
	svc        *school.Service
	enrSvc     *enrollment.Service
	accountSvc account.ServiceInterface
	auth       *jwtAuth
	validate   *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := schoolApi{
		svc:        deps.SchoolSvc,
		enrSvc:     deps.EnrollmentSvc,
		accountSvc: deps.AccountSvc,
		auth:       auth,
		validate:   deps.Validate,
	}

	sg := g.Group("/schools", jwt)
	sg.GET("", api.query)
	sg.POST("", api.onboard, ownerMiddleware(auth))
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy, ownerMiddleware(auth))
	sg.PUT("/:id/fees", api.publishFee)
	sg.GET("/:id/stats", api.stats, schoolScopedMiddleware(auth))
}

// Handlers

func (api *schoolApi) query(ctx echo.Context) error {
	schools, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	for i := range schools {
		api.fillStudentCount(ctx, &schools[i])
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

// onboard creates a school and, when provided, its administrator account in
// one request. The admin is always bound to the new school regardless of what
// the request claims.
func (api *schoolApi) onboard(ctx echo.Context) error {
	var data OnboardSchoolRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OnboardSchoolRequest")
	}
	if err := data.School.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), data.School)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}

	res := OnboardSchoolResponse{School: sch}
	if data.Admin != nil {
		data.Admin.Role = account.RoleSchoolAdmin
		data.Admin.SchoolID = sch.ID
		if err := data.Admin.Validate(api.validate, api.accountSvc); err != nil {
			return err
		}
		admin, err := api.accountSvc.Create(ctx.Request().Context(), *data.Admin)
		if err != nil {
			return errors.Wrap(err, "creating school administrator")
		}
		res.Admin = &admin
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	sch, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting school")
	}
	api.fillStudentCount(ctx, &sch)
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	if err := api.checkManages(ctx, ctx.Param("id")); err != nil {
		return err
	}

	sch, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting school")
	}

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(api.validate, sch); err != nil {
		return err
	}

	sch, err = api.svc.Update(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) publishFee(ctx echo.Context) error {
	if err := api.checkManages(ctx, ctx.Param("id")); err != nil {
		return err
	}

	var data school.UpsertFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.PublishFee(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "publishing fee")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) stats(ctx echo.Context) error {
	if err := api.checkManages(ctx, ctx.Param("id")); err != nil {
		return err
	}

	stats, err := api.enrSvc.SchoolStats(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting school stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// checkManages rejects sessions that neither own the platform nor administer
// the target school.
func (api *schoolApi) checkManages(ctx echo.Context, schoolID string) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	if sess.IsUnscopedOwner() {
		return nil
	}
	if sess.Role == account.RoleSchoolAdmin && sess.SchoolID == schoolID {
		return nil
	}
	return errHttpForbidden
}

func (api *schoolApi) fillStudentCount(ctx echo.Context, sch *school.School) {
	if stats, err := api.enrSvc.SchoolStats(ctx.Request().Context(), sch.ID); err == nil {
		sch.StudentCount = stats.EnrollmentCount
	}
}

type (
	OnboardSchoolRequest struct {
		School school.NewSchool    `json:"school"`
		Admin  *account.NewAccount `json:"admin,omitempty"`
	}

	OnboardSchoolResponse struct {
		School school.School    `json:"school"`
		Admin  *account.Account `json:"admin,omitempty"`
	}
)
