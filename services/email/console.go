package emailsvc

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/koda-tec/sistema-escolar/core"
)

var errNoRecipients = errors.New("message has no recipients")

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	out              *zap.Logger
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService returns a service that writes every message to the logs instead of sending it.
func NewConsoleService(conf *core.Config, out *zap.Logger) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.Email.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		out:              out,
	}
}

func (svc consoleService) SendMessage(_ context.Context, msg *core.EmailMessage) error {
	if !msg.HasRecipients() {
		return errNoRecipients
	}
	body, err := svc.compose(*msg)
	if err != nil {
		return err
	}
	if svc.out != nil {
		svc.out.Info("email", zap.Strings("to", msg.Addresses()), zap.String("message", body))
	}
	return nil
}

func (svc consoleService) compose(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return "", errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
		if err != nil {
			return "", errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	if err := altW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart writer")
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock records messages instead of printing them.
// Addresses passed to FailFor make SendMessage return an error.
type ConsoleServiceMock struct {
	consoleService

	mu      sync.Mutex
	sent    []core.EmailMessage
	failFor map[string]bool
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock() *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			defaultFromEmail: mail.Address{Name: "KodaEd", Address: "noreply@localhost"},
			subjPrefix:       "[KodaEd] ",
		},
		failFor: make(map[string]bool),
	}
}

func (svc *ConsoleServiceMock) SendMessage(_ context.Context, msg *core.EmailMessage) error {
	if !msg.HasRecipients() {
		return errNoRecipients
	}
	if _, err := svc.compose(*msg); err != nil {
		return err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, addr := range msg.Addresses() {
		if svc.failFor[addr] {
			return errors.Errorf("provider rejected %s", addr)
		}
	}
	svc.sent = append(svc.sent, *msg)
	return nil
}

// FailFor makes every later message to one of addrs fail.
func (svc *ConsoleServiceMock) FailFor(addrs ...string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, a := range addrs {
		svc.failFor[a] = true
	}
}

// Sent returns a copy of the recorded messages.
func (svc *ConsoleServiceMock) Sent() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

// SentTo returns the recipients of all recorded messages.
func (svc *ConsoleServiceMock) SentTo() []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	addrs := make([]string, 0, len(svc.sent))
	for _, m := range svc.sent {
		addrs = append(addrs, m.Addresses()...)
	}
	return addrs
}

func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
	svc.failFor = make(map[string]bool)
}
