package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/koda-tec/sistema-escolar/core"
)

type repoMock struct {
	mu       sync.Mutex
	subs     map[string]Subscription
	payments map[string]Payment
}

func newRepoMock() *repoMock {
	return &repoMock{subs: make(map[string]Subscription), payments: make(map[string]Payment)}
}

func (r *repoMock) GetSubscription(_ context.Context, schoolID string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[schoolID]
	if !ok {
		return Subscription{}, core.ErrNotFound
	}
	return sub, nil
}

func (r *repoMock) ApplyPayment(_ context.Context, p Payment, apply func(Subscription) Subscription) (Subscription, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; ok {
		return r.subs[p.SchoolID], false, nil
	}
	r.payments[p.ID] = p
	cur, ok := r.subs[p.SchoolID]
	if !ok {
		cur = Subscription{SchoolID: p.SchoolID}
	}
	sub := apply(cur)
	r.subs[p.SchoolID] = sub
	return sub, true, nil
}

var testNow = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	svc := NewService(repo, validator.New(), core.PaymentsConfig{WebhookSecret: "whsec"})
	svc.nowFunc = func() time.Time { return testNow }
	return svc
}

func TestService_ApprovePayment(t *testing.T) {
	repo := newRepoMock()
	svc := newTestService(repo)
	ctx := context.Background()

	notice := PaymentNotice{PaymentID: "pay-1", Status: "approved", SchoolID: "s-1", PayerID: "dir-1", Plan: "monthly", Amount: 150000}

	out, err := svc.ApprovePayment(ctx, notice)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, StatusActive, out.Subscription.Status)
	assert.Equal(t, null.TimeFrom(testNow.AddDate(0, 1, 0)), out.Subscription.PaidUntil)
	assert.True(t, out.Subscription.Active(testNow))

	// re-delivery
	out, err = svc.ApprovePayment(ctx, notice)
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, testNow.AddDate(0, 1, 0), out.Subscription.PaidUntil.Time)

	// a yearly payment extends from the current end, not from now
	notice.PaymentID, notice.Plan = "pay-2", "YEARLY"
	out, err = svc.ApprovePayment(ctx, notice)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, PlanYearly, out.Subscription.Plan)
	assert.Equal(t, testNow.AddDate(0, 1, 0).AddDate(1, 0, 0), out.Subscription.PaidUntil.Time)
	assert.Len(t, repo.payments, 2)
}

func TestService_ApprovePayment_ExpiredExtendsFromNow(t *testing.T) {
	repo := newRepoMock()
	repo.subs["s-1"] = Subscription{SchoolID: "s-1", Plan: PlanMonthly, Status: StatusInactive, PaidUntil: null.TimeFrom(testNow.AddDate(0, -2, 0))}
	svc := newTestService(repo)

	out, err := svc.ApprovePayment(context.Background(), PaymentNotice{PaymentID: "pay-9", Status: "approved", SchoolID: "s-1", PayerID: "dir-1", Plan: PlanMonthly})
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 1, 0), out.Subscription.PaidUntil.Time)
}

func TestService_ApprovePayment_NotApproved(t *testing.T) {
	repo := newRepoMock()
	svc := newTestService(repo)

	out, err := svc.ApprovePayment(context.Background(), PaymentNotice{PaymentID: "pay-1", Status: "rejected", SchoolID: "s-1", PayerID: "dir-1", Plan: PlanMonthly})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Empty(t, repo.payments)

	_, err = svc.ApprovePayment(context.Background(), PaymentNotice{PaymentID: "pay-1", Status: "approved", SchoolID: "s-1", Plan: "weekly"})
	assert.Error(t, err)
}

func TestService_VerifySignature(t *testing.T) {
	svc := newTestService(newRepoMock())
	body := []byte(`{"paymentId":"pay-1"}`)
	sig := svc.Sign(body)

	assert.NoError(t, svc.VerifySignature(body, sig))
	assert.NoError(t, svc.VerifySignature(body, "sha256="+sig))
	assert.Equal(t, ErrBadSignature, svc.VerifySignature(body, "deadbeef"))
	assert.Equal(t, ErrBadSignature, svc.VerifySignature(body, "not-hex"))
	assert.Equal(t, ErrBadSignature, svc.VerifySignature([]byte(`{"paymentId":"pay-2"}`), sig))

	unset := NewService(newRepoMock(), validator.New(), core.PaymentsConfig{})
	assert.Error(t, unset.VerifySignature(body, sig))
}
