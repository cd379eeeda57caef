package emailsvc

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/koda-tec/sistema-escolar/core"
)

// NewService returns the email provider selected by conf.Email.Provider.
func NewService(ctx context.Context, conf *core.Config, out *zap.Logger) (core.EmailService, error) {
	switch conf.Email.Provider {
	case "", "console":
		return NewConsoleService(conf, out), nil
	case "sendgrid":
		if conf.Email.SendgridAPIKey == "" {
			return nil, errors.New("email.sendgridAPIKey is required by the sendgrid provider")
		}
		return NewSendgridService(conf), nil
	case "ses":
		return NewSESService(ctx, conf)
	case "mock":
		return NewConsoleServiceMock(), nil
	}
	return nil, errors.Errorf("unknown email provider %q", conf.Email.Provider)
}
