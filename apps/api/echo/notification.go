package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/scope"
)

type notificationApi struct {
	svc      *notification.Service
	auth     *jwtAuth
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := notificationApi{
		svc:      deps.NotifSvc,
		auth:     auth,
		validate: deps.Validate,
	}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("/broadcast", api.broadcast, ownerMiddleware(auth))
	ng.PUT("/:id/read", api.markRead)
}

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	all, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, scope.Notifications(sess, all))
}

func (api *notificationApi) broadcast(ctx echo.Context) error {
	var data BroadcastRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BroadcastRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	notif, err := api.svc.Broadcast(ctx.Request().Context(), data.Title, data.Message)
	if err != nil {
		return errors.Wrap(err, "broadcasting")
	}
	return ctx.JSON(http.StatusCreated, notif)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	sess, err := api.auth.contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	notif, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting notification")
	}
	if !sess.IsUnscopedOwner() && !notif.IsBroadcast() && notif.AccountID != sess.EffectiveAccountID() {
		return errHttpNotFound
	}

	notif, err = api.svc.MarkRead(ctx.Request().Context(), notif.ID)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, notif)
}

type BroadcastRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (br *BroadcastRequest) Validate(validate *validator.Validate) error {
	br.Title = core.CleanString(br.Title)
	br.Message = core.CleanString(br.Message)
	return validate.Struct(br)
}
