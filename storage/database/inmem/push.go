package inmemdb

import (
	"context"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/push"
)

type pushRepository struct {
	db *DB
}

var _ push.Store = (*pushRepository)(nil)

func NewPushRepository(db *DB) push.Store {
	return &pushRepository{db: db}
}

func (repo *pushRepository) GetSubscription(_ context.Context, identityID string) (push.Subscription, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if sub, ok := repo.db.subscriptions[identityID]; ok {
		return sub, nil
	}
	return push.Subscription{}, core.ErrNotFound
}

func (repo *pushRepository) SaveSubscription(_ context.Context, sub push.Subscription) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.subscriptions[sub.IdentityID] = sub
	return nil
}

func (repo *pushRepository) DeleteSubscription(_ context.Context, identityID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.subscriptions, identityID)
	return nil
}

func (repo *pushRepository) DeleteStaleSubscription(_ context.Context, identityID, endpoint string) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	sub, ok := repo.db.subscriptions[identityID]
	if !ok || sub.Endpoint() != endpoint {
		return false, nil
	}
	delete(repo.db.subscriptions, identityID)
	return true, nil
}
