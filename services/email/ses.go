package emailsvc

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

const charset = "UTF-8"

// SESService is the part of the SES client used to send mail.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesService struct {
	client     SESService
	from       string
	subjPrefix string
}

var _ core.EmailService = (*sesService)(nil)

// NewSESService loads the default AWS credentials chain for the configured region.
func NewSESService(ctx context.Context, conf *core.Config) (core.EmailService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.Email.SESRegion))
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}
	return newSESService(ses.NewFromConfig(awsCfg), conf), nil
}

func newSESService(client SESService, conf *core.Config) *sesService {
	return &sesService{
		client:     client,
		from:       conf.Email.DefaultFromEmail.String(),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc sesService) SendMessage(ctx context.Context, msg *core.EmailMessage) error {
	if !msg.HasRecipients() {
		return errNoRecipients
	}

	text := msg.TextContent
	if text == "" {
		text = msg.BodyStr
	}
	body := &types.Body{Text: &types.Content{Data: aws.String(text), Charset: aws.String(charset)}}
	if msg.HTMLContent != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLContent), Charset: aws.String(charset)}
	}

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}

	_, err := svc.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(svc.subjPrefix + msg.Subject), Charset: aws.String(charset)},
			Body:    body,
		},
		Source: aws.String(svc.from),
	})
	return errors.Wrap(err, "calling ses")
}
