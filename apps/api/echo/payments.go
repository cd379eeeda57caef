package echoapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/billing"
	"github.com/koda-tec/sistema-escolar/core/notification"
)

const (
	signatureHeader = "X-Signature"
	maxWebhookBody  = 64 << 10
)

var planLabels = map[billing.Plan]string{
	billing.PlanMonthly: "mensual",
	billing.PlanYearly:  "anual",
}

type (
	paymentApi struct {
		svc    *billing.Service
		notify *notification.Service
		logger core.Logger
	}

	webhookResponse struct {
		Received     bool                 `json:"received"`
		Changed      bool                 `json:"changed"`
		Subscription billing.Subscription `json:"subscription"`
	}
)

func registerPaymentAPI(g *echo.Group, svc *billing.Service, notify *notification.Service, logger core.Logger) {
	api := paymentApi{svc: svc, notify: notify, logger: logger}

	// called by the payment gateway, authenticated by signature
	g.POST("/webhooks/payment", api.webhook)
}

func (api *paymentApi) webhook(ctx echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBody))
	if err != nil {
		return errors.Wrap(err, "reading webhook body")
	}
	if err := api.svc.VerifySignature(body, ctx.Request().Header.Get(signatureHeader)); err != nil {
		return err
	}

	var notice billing.PaymentNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payment notice").SetInternal(err)
	}
	outcome, err := api.svc.ApprovePayment(ctx.Request().Context(), notice)
	if err != nil {
		return err
	}

	// re-deliveries change nothing and notify nobody
	if outcome.Changed {
		ev := paymentEvent(notice, outcome.Subscription)
		if _, err := api.notify.Notify(ctx.Request().Context(), ev); err != nil {
			api.logger.Warn(fmt.Sprintf("notifying payment %s: %v", notice.PaymentID, err), err)
		}
	}
	return ctx.JSON(http.StatusOK, webhookResponse{
		Received:     true,
		Changed:      outcome.Changed,
		Subscription: outcome.Subscription,
	})
}

func paymentEvent(notice billing.PaymentNotice, sub billing.Subscription) notification.Event {
	data := map[string]string{"plan": planLabels[notice.Plan]}
	if sub.PaidUntil.Valid {
		data["paid_until"] = sub.PaidUntil.Time.Format(displayDateLayout)
	}
	return notification.Event{
		Kind:     notification.KindPaymentApproved,
		SchoolID: notice.SchoolID,
		Scope:    notification.Scope{Kind: notification.ScopeIdentity, ID: notice.PayerID},
		Data:     data,
	}
}
