package notification

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koda-tec/sistema-escolar/core"
	emailsvc "github.com/koda-tec/sistema-escolar/services/email"
	logsvc "github.com/koda-tec/sistema-escolar/services/logger"
)

func newTestService(t *testing.T, dir Directory, mailSvc core.EmailService, push PushChannel) *Service {
	t.Helper()
	svc, err := NewService(dir, mailSvc, push, logsvc.NewTestLogger(t), Options{Workers: 4, Site: testSite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func studentEvent(studentID string) Event {
	return Event{
		Kind:     KindAttendanceAbsence,
		SchoolID: "s-1",
		Scope:    Scope{Kind: ScopeStudent, ID: studentID},
		Data:     map[string]string{"student": "Juan Pérez", "date": "2024-03-04"},
	}
}

func TestService_Notify_Scenarios(t *testing.T) {
	dir := &directoryMock{byStudnt: map[string][]Contact{
		"st-a": {{ID: "g-a", Email: "a@example.com", Name: "A"}},
		"st-b": {{ID: "g-b", Name: "B"}},
		"st-c": {{ID: "g-c", Email: "c@example.com"}},
		"st-d": {{ID: "g-d", Email: "d@example.com"}},
		"st-e": {{ID: "g-e", Email: "e@example.com"}},
	}}
	push := &pushMock{
		subs: map[string]bool{"g-a": true, "g-b": true, "g-d": true, "g-e": true},
		fail: map[string]bool{"g-d": true},
	}
	mailSvc := emailsvc.NewConsoleServiceMock()
	mailSvc.FailFor("e@example.com")
	svc := newTestService(t, dir, mailSvc, push)

	tests := []struct {
		name         string
		student      string
		want         DeliveryOutcome
		wantNotified int
	}{
		{name: "email and push", student: "st-a", want: DeliveryOutcome{RecipientID: "g-a", Email: ResultOK, Push: ResultOK}, wantNotified: 1},
		{name: "no email", student: "st-b", want: DeliveryOutcome{RecipientID: "g-b", Email: ResultSkipped, Push: ResultOK}, wantNotified: 1},
		{name: "no subscription", student: "st-c", want: DeliveryOutcome{RecipientID: "g-c", Email: ResultOK, Push: ResultSkipped}, wantNotified: 1},
		{name: "push fails", student: "st-d", want: DeliveryOutcome{RecipientID: "g-d", Email: ResultOK, Push: ResultFailed}, wantNotified: 1},
		{name: "email fails, push ok", student: "st-e", want: DeliveryOutcome{RecipientID: "g-e", Email: ResultFailed, Push: ResultOK}, wantNotified: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := svc.Notify(context.Background(), studentEvent(tt.student))
			require.NoError(t, err)
			assert.Equal(t, 1, summary.TotalRecipients)
			assert.Equal(t, tt.wantNotified, summary.Notified)
			assert.Equal(t, []DeliveryOutcome{tt.want}, summary.Outcomes)
		})
	}

	// g-b never had an email sent, g-e was rejected by the provider
	assert.ElementsMatch(t, []string{"a@example.com", "c@example.com", "d@example.com"}, mailSvc.SentTo())
}

func TestService_Notify_NobodyReached(t *testing.T) {
	dir := &directoryMock{byStudnt: map[string][]Contact{"st-1": {{ID: "g-1", Email: "x@example.com"}, {ID: "g-2"}}}}
	mailSvc := emailsvc.NewConsoleServiceMock()
	mailSvc.FailFor("x@example.com")
	svc := newTestService(t, dir, mailSvc, nil)

	summary, err := svc.Notify(context.Background(), studentEvent("st-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalRecipients)
	assert.Zero(t, summary.Notified)
	assert.Equal(t, 1, summary.Count(channelEmail, ResultFailed))
	assert.Equal(t, 1, summary.Count(channelEmail, ResultSkipped))
	assert.Equal(t, 2, summary.Count(channelPush, ResultSkipped))
}

func TestService_Notify_ResolverFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	dir := &directoryMock{err: storeErr}
	mailSvc := emailsvc.NewConsoleServiceMock()
	push := &pushMock{subs: map[string]bool{}}
	svc := newTestService(t, dir, mailSvc, push)

	summary, err := svc.Notify(context.Background(), studentEvent("st-1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolution))
	assert.True(t, errors.Is(err, storeErr))
	assert.Equal(t, Summary{}, summary)
	assert.Empty(t, mailSvc.Sent())
	assert.Zero(t, push.count())

	var rerr *ResolutionError
	assert.True(t, errors.As(err, &rerr))
}

func TestService_Notify_InvalidScope(t *testing.T) {
	svc := newTestService(t, &directoryMock{}, emailsvc.NewConsoleServiceMock(), nil)

	_, err := svc.Notify(context.Background(), Event{Kind: KindAccountLinked, SchoolID: "s-1", Scope: Scope{Kind: ScopeIdentity}})
	assert.True(t, errors.Is(err, ErrResolution))
	assert.True(t, errors.Is(err, ErrInvalidScope))
}

func TestService_Notify_UnknownKind(t *testing.T) {
	dir := &directoryMock{}
	svc := newTestService(t, dir, emailsvc.NewConsoleServiceMock(), nil)

	_, err := svc.Notify(context.Background(), Event{Kind: "birthday", SchoolID: "s-1", Scope: Scope{Kind: ScopeInstitution}})
	assert.Equal(t, ErrUnknownKind, errors.Cause(err))
	assert.Zero(t, dir.calls)
}

func TestService_Notify_EmptyScope(t *testing.T) {
	mailSvc := emailsvc.NewConsoleServiceMock()
	svc := newTestService(t, &directoryMock{}, mailSvc, nil)

	summary, err := svc.Notify(context.Background(), Event{Kind: KindCommunicationPublished, SchoolID: "s-1", Scope: Scope{Kind: ScopeCourse, ID: "c-empty"}})
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRecipients)
	assert.Zero(t, summary.Notified)
	assert.Empty(t, mailSvc.Sent())
}

func TestService_Notify_StudentWithoutGuardians(t *testing.T) {
	dir := &directoryMock{byStudnt: map[string][]Contact{"st-1": {{ID: "g-1", Email: "a@example.com"}}}}
	mailSvc := emailsvc.NewConsoleServiceMock()
	push := &pushMock{subs: map[string]bool{"g-1": true}}
	svc := newTestService(t, dir, mailSvc, push)

	summary, err := svc.Notify(context.Background(), studentEvent("st-orphan"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Outcomes: []DeliveryOutcome{}}, summary)
	assert.Equal(t, 1, dir.calls)
	assert.Empty(t, mailSvc.Sent())
	assert.Zero(t, push.count())
}

func TestService_Notify_NotIdempotent(t *testing.T) {
	dir := &directoryMock{bySchool: map[string][]Contact{"s-1": {
		{ID: "g-1", Email: "a@example.com"},
		{ID: "g-2", Email: "b@example.com"},
		{ID: "g-1", Email: "a@example.com"},
	}}}
	mailSvc := emailsvc.NewConsoleServiceMock()
	push := &pushMock{subs: map[string]bool{"g-1": true, "g-2": true}}
	svc := newTestService(t, dir, mailSvc, push)

	ev := Event{Kind: KindCommunicationPublished, SchoolID: "s-1", Scope: Scope{Kind: ScopeInstitution}}
	for i := 0; i < 2; i++ {
		summary, err := svc.Notify(context.Background(), ev)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.TotalRecipients)
		assert.Equal(t, 2, summary.Notified)
	}
	assert.Len(t, mailSvc.Sent(), 4)
	assert.Equal(t, 4, push.count())
}

func TestService_Notify_SharedEmail(t *testing.T) {
	dir := &directoryMock{byStudnt: map[string][]Contact{"st-1": {
		{ID: "g-mom", Email: "familia@example.com"},
		{ID: "g-dad", Email: "familia@example.com"},
	}}}
	mailSvc := emailsvc.NewConsoleServiceMock()
	svc := newTestService(t, dir, mailSvc, nil)

	summary, err := svc.Notify(context.Background(), studentEvent("st-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Notified)
	assert.Equal(t, []string{"familia@example.com", "familia@example.com"}, mailSvc.SentTo())
}

func TestService_Notify_EmailContent(t *testing.T) {
	dir := &directoryMock{byStudnt: map[string][]Contact{"st-1": {{ID: "g-1", Email: "a@example.com", Name: "Ana"}}}}
	mailSvc := emailsvc.NewConsoleServiceMock()
	svc := newTestService(t, dir, mailSvc, nil)

	_, err := svc.Notify(context.Background(), studentEvent("st-1"))
	require.NoError(t, err)

	sent := mailSvc.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, []mail.Address{{Name: "Ana", Address: "a@example.com"}}, msg.To)
	assert.Equal(t, "Inasistencia registrada", msg.Subject)
	assert.Contains(t, msg.TextContent, "Hola Ana")
	assert.Contains(t, msg.TextContent, "Juan Pérez fue registrado/a como ausente el día 2024-03-04.")
	assert.Contains(t, msg.HTMLContent, "https://app.kodaed.test/dashboard/asistencia")
}

// blockingEmail only returns once the push channel of the same recipient has started.
type blockingEmail struct {
	pushStarted <-chan struct{}
}

func (b blockingEmail) SendMessage(ctx context.Context, _ *core.EmailMessage) error {
	select {
	case <-b.pushStarted:
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("push was not attempted while email was in flight")
	}
}

type signallingPush struct {
	once    sync.Once
	started chan struct{}
}

func (s *signallingPush) Push(context.Context, string, PushMessage) (Result, error) {
	s.once.Do(func() { close(s.started) })
	return ResultOK, nil
}

func TestService_Notify_ChannelsRunConcurrently(t *testing.T) {
	dir := &directoryMock{byStudnt: map[string][]Contact{"st-1": {{ID: "g-1", Email: "a@example.com"}}}}
	push := &signallingPush{started: make(chan struct{})}
	svc := newTestService(t, dir, blockingEmail{pushStarted: push.started}, push)

	summary, err := svc.Notify(context.Background(), studentEvent("st-1"))
	require.NoError(t, err)
	assert.Equal(t, []DeliveryOutcome{{RecipientID: "g-1", Email: ResultOK, Push: ResultOK}}, summary.Outcomes)
}

// cancelAware fails when its context is done.
type cancelAware struct{}

func (cancelAware) SendMessage(ctx context.Context, _ *core.EmailMessage) error {
	return ctx.Err()
}

func TestService_Notify_IgnoresCallerCancellation(t *testing.T) {
	dir := &directoryMock{byStudnt: map[string][]Contact{"st-1": {{ID: "g-1", Email: "a@example.com"}}}}
	svc := newTestService(t, dir, cancelAware{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	dirCancel := &cancellingDirectory{Directory: dir, cancel: cancel}
	svc.resolver = NewResolver(dirCancel)

	summary, err := svc.Notify(ctx, studentEvent("st-1"))
	require.NoError(t, err)
	assert.Equal(t, ResultOK, summary.Outcomes[0].Email)
}

// cancellingDirectory cancels the caller's context once recipients are resolved.
type cancellingDirectory struct {
	Directory
	cancel context.CancelFunc
}

func (d *cancellingDirectory) GuardiansByStudent(ctx context.Context, schoolID, studentID string) ([]Contact, error) {
	defer d.cancel()
	return d.Directory.GuardiansByStudent(ctx, schoolID, studentID)
}

func TestService_Notify_ManyRecipients(t *testing.T) {
	contacts := make([]Contact, 0, 50)
	subs := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := "g-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		contacts = append(contacts, Contact{ID: id, Email: id + "@example.com"})
		subs[id] = i%2 == 0
	}
	dir := &directoryMock{bySchool: map[string][]Contact{"s-1": contacts}}
	mailSvc := emailsvc.NewConsoleServiceMock()
	push := &pushMock{subs: subs}
	svc := newTestService(t, dir, mailSvc, push)

	summary, err := svc.Notify(context.Background(), Event{Kind: KindPaymentApproved, SchoolID: "s-1", Scope: Scope{Kind: ScopeInstitution}})
	require.NoError(t, err)
	assert.Equal(t, 50, summary.TotalRecipients)
	assert.Equal(t, 50, summary.Notified)
	assert.Len(t, mailSvc.Sent(), 50)
	assert.Equal(t, 25, push.count())
	for i, o := range summary.Outcomes {
		assert.Equal(t, contacts[i].ID, o.RecipientID)
	}
}

func TestService_Notify_ConcurrentFailures(t *testing.T) {
	contacts := make([]Contact, 0, 200)
	subs := make(map[string]bool)
	emails := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("g-%03d", i)
		contacts = append(contacts, Contact{ID: id, Email: id + "@example.com"})
		emails = append(emails, id+"@example.com")
		subs[id] = true
	}
	dir := &directoryMock{bySchool: map[string][]Contact{"s-1": contacts}}
	mailSvc := emailsvc.NewConsoleServiceMock()
	mailSvc.FailFor(emails...)
	push := &pushMock{subs: subs, fail: subs}
	svc := newTestService(t, dir, mailSvc, push)

	ev := Event{Kind: KindCommunicationPublished, SchoolID: "s-1", Scope: Scope{Kind: ScopeInstitution}}
	for round := 0; round < 5; round++ {
		summary, err := svc.Notify(context.Background(), ev)
		require.NoError(t, err)
		assert.Equal(t, 200, summary.TotalRecipients)
		assert.Zero(t, summary.Notified)
		assert.Equal(t, 200, summary.Count(channelEmail, ResultFailed))
		assert.Equal(t, 200, summary.Count(channelPush, ResultFailed))
	}
}
