package inmemdb

import (
	"context"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/billing"
)

type billingRepository struct {
	db *DB
}

var _ billing.Repository = (*billingRepository)(nil)

func NewBillingRepository(db *DB) billing.Repository {
	return &billingRepository{db: db}
}

func (repo *billingRepository) GetSubscription(_ context.Context, schoolID string) (billing.Subscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if sub, ok := repo.db.billing[schoolID]; ok {
		return sub, nil
	}
	return billing.Subscription{}, core.ErrNotFound
}

func (repo *billingRepository) ApplyPayment(_ context.Context, p billing.Payment, apply func(billing.Subscription) billing.Subscription) (billing.Subscription, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, done := repo.db.payments[p.ID]; done {
		return repo.db.billing[p.SchoolID], false, nil
	}
	repo.db.payments[p.ID] = p

	cur, ok := repo.db.billing[p.SchoolID]
	if !ok {
		cur = billing.Subscription{SchoolID: p.SchoolID}
	}
	sub := apply(cur)
	repo.db.billing[p.SchoolID] = sub
	return sub, true, nil
}
