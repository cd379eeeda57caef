package notification

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

// directoryMock serves fixed rows per query and counts calls.
type directoryMock struct {
	mu       sync.Mutex
	bySchool map[string][]Contact
	byCourse map[string][]Contact
	byStudnt map[string][]Contact
	profiles []Contact
	err      error
	calls    int
	schools  []string
}

func (d *directoryMock) record(schoolID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.schools = append(d.schools, schoolID)
	return d.err
}

func (d *directoryMock) GuardiansBySchool(_ context.Context, schoolID string) ([]Contact, error) {
	if err := d.record(schoolID); err != nil {
		return nil, err
	}
	return d.bySchool[schoolID], nil
}

func (d *directoryMock) GuardiansByCourse(_ context.Context, schoolID, courseID string) ([]Contact, error) {
	if err := d.record(schoolID); err != nil {
		return nil, err
	}
	return d.byCourse[courseID], nil
}

func (d *directoryMock) GuardiansByStudent(_ context.Context, schoolID, studentID string) ([]Contact, error) {
	if err := d.record(schoolID); err != nil {
		return nil, err
	}
	return d.byStudnt[studentID], nil
}

func (d *directoryMock) ProfilesByID(_ context.Context, schoolID string, ids ...string) ([]Contact, error) {
	if err := d.record(schoolID); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Contact
	for _, c := range d.profiles {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// pushMock has a subscription for every identity in subs; identities in fail error out.
type pushMock struct {
	mu   sync.Mutex
	subs map[string]bool
	fail map[string]bool
	sent []string
}

func (p *pushMock) Push(_ context.Context, identityID string, _ PushMessage) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.subs[identityID] {
		return ResultSkipped, nil
	}
	if p.fail[identityID] {
		return ResultFailed, errors.New("push service unavailable")
	}
	p.sent = append(p.sent, identityID)
	return ResultOK, nil
}

func (p *pushMock) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

var testSite = core.Site{AppName: "KodaEd", FrontendBaseURL: "https://app.kodaed.test"}
