package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core/notification"
)

type (
	notificationApi struct {
		svc      *notification.Service
		validate *validator.Validate
	}

	notifyResponse struct {
		Success         bool `json:"success"`
		NotifiedCount   int  `json:"notifiedCount"`
		TotalRecipients int  `json:"totalRecipients"`
	}

	notifyFailure struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
)

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notification.Service, validate *validator.Validate) {
	api := notificationApi{svc: svc, validate: validate}

	g.POST("/notifications", api.create, jwt, roleMiddleware(RoleDirector, RoleStaff))
}

// create fans one event out to the caller's school.
// Resolution failures are reported in the body, channel failures only in the counts.
func (api *notificationApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data notification.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	summary, err := api.svc.Notify(ctx.Request().Context(), data.Event(claims.SchoolID))
	if err != nil {
		if errors.Is(err, notification.ErrResolution) {
			return ctx.JSON(http.StatusInternalServerError, notifyFailure{Error: err.Error()})
		}
		return errors.Wrap(err, "notifying")
	}
	return ctx.JSON(http.StatusOK, notifyResponse{
		Success:         true,
		NotifiedCount:   summary.Notified,
		TotalRecipients: summary.TotalRecipients,
	})
}
