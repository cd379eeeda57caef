package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

const defaultWorkers = 16

// ResolutionError is returned by Service.Notify when recipients could not be resolved.
// No channel was attempted in that case.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string { return "resolving recipients: " + e.Err.Error() }
func (e *ResolutionError) Unwrap() error { return e.Err }
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

type Options struct {
	Workers int // recipients dispatched concurrently
	Site    core.Site
}

// Service fans one Event out to every recipient over email and web push.
type Service struct {
	resolver *Resolver
	email    emailChannel
	push     PushChannel
	pool     *ants.Pool
	logger   core.Logger
	site     core.Site
}

// NewService returns a Service. push may be nil when web push is not configured,
// in which case every push attempt is skipped.
func NewService(dir Directory, emailSvc core.EmailService, push PushChannel, logger core.Logger, opts Options) (*Service, error) {
	if push == nil {
		push = noPush{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		logger.Error(fmt.Sprintf("notification worker panicked: %v", p))
	}))
	if err != nil {
		return nil, errors.Wrap(err, "creating worker pool")
	}

	return &Service{
		resolver: NewResolver(dir),
		email:    emailChannel{svc: emailSvc, site: opts.Site},
		push:     push,
		pool:     pool,
		logger:   logger,
		site:     opts.Site,
	}, nil
}

// Close waits for in-flight deliveries and releases the worker pool.
func (svc *Service) Close() error {
	return svc.pool.ReleaseTimeout(30 * time.Second)
}

// Notify resolves the recipients of ev and attempts every channel for each of them.
// Channel failures are reported in the Summary only; the returned error is either
// a *ResolutionError or an ErrUnknownKind, and means nothing was sent.
//
// Deliveries are not cancelled with ctx: once started, every attempt runs to completion.
// Notify is not idempotent, calling it twice sends everything twice.
func (svc *Service) Notify(ctx context.Context, ev Event) (Summary, error) {
	start := time.Now()
	kind := string(ev.Kind)
	defer func() { fanoutDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds()) }()

	c, err := render(ev, svc.site)
	if err != nil {
		fanoutsTotal.WithLabelValues(kind, "error").Inc()
		return Summary{}, err
	}

	recipients, err := svc.resolver.Resolve(ctx, ev.SchoolID, ev.Scope)
	if err != nil {
		fanoutsTotal.WithLabelValues(kind, "error").Inc()
		err = &ResolutionError{Err: err}
		svc.logger.Error(fmt.Sprintf("notifying %s: %v", kind, err), err, map[string]interface{}{
			"school": ev.SchoolID,
			"scope":  ev.Scope.String(),
		})
		return Summary{}, err
	}
	if len(recipients) == 0 {
		fanoutsTotal.WithLabelValues(kind, "empty").Inc()
		svc.logger.Info(fmt.Sprintf("notifying %s: no recipients for %s", kind, ev.Scope))
		return Summary{Outcomes: []DeliveryOutcome{}}, nil
	}

	sendCtx := context.WithoutCancel(ctx)
	outcomes := make([]DeliveryOutcome, len(recipients))
	var wg sync.WaitGroup
	for i := range recipients {
		i := i
		rcpt := recipients[i]
		outcomes[i] = DeliveryOutcome{RecipientID: rcpt.ID, Email: ResultFailed, Push: ResultFailed}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			outcomes[i] = svc.dispatch(sendCtx, ev.Kind, rcpt, c)
		}
		if err := svc.pool.Submit(task); err != nil {
			// pool closed or overloaded
			svc.logger.Warn(fmt.Sprintf("submitting delivery task: %v", err), err)
			task()
		}
	}
	wg.Wait()

	summary := Summary{TotalRecipients: len(recipients), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Notified() {
			summary.Notified++
		}
	}

	fanoutsTotal.WithLabelValues(kind, "ok").Inc()
	svc.logger.Info(
		fmt.Sprintf("notified %d/%d recipients of %s", summary.Notified, summary.TotalRecipients, kind),
		map[string]interface{}{
			"school":       ev.SchoolID,
			"scope":        ev.Scope.String(),
			"emailOK":      summary.Count(channelEmail, ResultOK),
			"emailFailed":  summary.Count(channelEmail, ResultFailed),
			"emailSkipped": summary.Count(channelEmail, ResultSkipped),
			"pushOK":       summary.Count(channelPush, ResultOK),
			"pushFailed":   summary.Count(channelPush, ResultFailed),
			"pushSkipped":  summary.Count(channelPush, ResultSkipped),
			"took":         time.Since(start).String(),
		},
	)
	return summary, nil
}

// dispatch attempts both channels of one recipient concurrently and waits for both.
func (svc *Service) dispatch(ctx context.Context, kind EventKind, rcpt Recipient, c content) DeliveryOutcome {
	res := settle(ctx,
		func(ctx context.Context) (Result, error) { return svc.email.send(ctx, rcpt, c) },
		func(ctx context.Context) (Result, error) { return svc.push.Push(ctx, rcpt.ID, c.push()) },
	)
	return DeliveryOutcome{
		RecipientID: rcpt.ID,
		Email:       svc.outcome(channelEmail, kind, rcpt, res[0]),
		Push:        svc.outcome(channelPush, kind, rcpt, res[1]),
	}
}

func (svc *Service) outcome(channel string, kind EventKind, rcpt Recipient, s Settled[Result]) Result {
	r := s.Value
	if s.Err != nil {
		r = ResultFailed
		svc.logger.Error(fmt.Sprintf("%s delivery failed: %v", channel, s.Err), s.Err, map[string]interface{}{
			"kind":      string(kind),
			"recipient": rcpt.ID,
		})
	} else if r == "" {
		r = ResultFailed
	}
	deliveriesTotal.WithLabelValues(channel, string(r)).Inc()
	return r
}
