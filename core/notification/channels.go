package notification

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

const (
	channelEmail = "email"
	channelPush  = "push"

	emailTemplate = "notification"
)

// PushChannel delivers one payload to the registered device of an identity.
// Identities without a subscription yield ResultSkipped and no error.
type PushChannel interface {
	Push(ctx context.Context, identityID string, msg PushMessage) (Result, error)
}

// emailChannel renders and sends one notification email through a core.EmailService.
type emailChannel struct {
	svc  core.EmailService
	site core.Site
}

func (ch emailChannel) send(ctx context.Context, rcpt Recipient, c content) (Result, error) {
	if rcpt.Email == "" {
		return ResultSkipped, nil
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: rcpt.Name, Address: rcpt.Email}},
		Subject:      c.title,
		TemplateName: emailTemplate,
		TemplateData: emailData{
			RecipientName: displayName(rcpt),
			Title:         c.title,
			Body:          c.body,
			URL:           c.absoluteURL,
		},
	}
	if err := msg.Render(ch.site); err != nil {
		return ResultFailed, errors.Wrap(err, "rendering email")
	}
	if err := ch.svc.SendMessage(ctx, msg); err != nil {
		return ResultFailed, errors.Wrap(err, "sending email")
	}
	return ResultOK, nil
}

// noPush is used when web push is not configured.
type noPush struct{}

func (noPush) Push(context.Context, string, PushMessage) (Result, error) {
	return ResultSkipped, nil
}

func displayName(rcpt Recipient) string {
	if rcpt.Name != "" {
		return rcpt.Name
	}
	return "familia"
}
