package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core/push"
)

type pushApi struct {
	svc       *push.Service
	publicKey string
}

func registerPushAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *push.Service, publicKey string) {
	api := pushApi{svc: svc, publicKey: publicKey}

	pg := g.Group("/push")
	pg.GET("/vapid-public-key", api.vapidPublicKey)

	sg := pg.Group("/subscription", jwt, roleMiddleware())
	sg.POST("", api.subscribe)
	sg.DELETE("", api.unsubscribe)
}

// Handlers

func (api *pushApi) vapidPublicKey(ctx echo.Context) error {
	if api.publicKey == "" {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, echo.Map{"publicKey": api.publicKey})
}

func (api *pushApi) subscribe(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data push.NewSubscription
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubscription")
	}
	sub, err := api.svc.Register(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *pushApi) unsubscribe(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.svc.Unregister(ctx.Request().Context(), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
