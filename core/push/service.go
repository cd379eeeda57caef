package push

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

// Store persists at most one Subscription per identity.
type Store interface {
	// GetSubscription returns core.ErrNotFound when the identity never registered.
	GetSubscription(ctx context.Context, identityID string) (Subscription, error)
	// SaveSubscription inserts or replaces the subscription of sub.IdentityID.
	SaveSubscription(ctx context.Context, sub Subscription) error
	// DeleteSubscription is a no-op when nothing is stored.
	DeleteSubscription(ctx context.Context, identityID string) error
	// DeleteStaleSubscription deletes the subscription of identityID only while it still
	// points at endpoint, and reports whether it did.
	DeleteStaleSubscription(ctx context.Context, identityID, endpoint string) (bool, error)
}

// Service registers browser subscriptions.
type Service struct {
	store    Store
	validate *validator.Validate
	nowFunc  func() time.Time // mockable
}

func NewService(store Store, validate *validator.Validate) *Service {
	return &Service{store: store, validate: validate, nowFunc: time.Now}
}

// Register stores ns as the identity's current subscription; the previous one is dropped.
func (svc *Service) Register(ctx context.Context, identityID string, ns NewSubscription) (Subscription, error) {
	identityID = core.CleanString(identityID)
	if identityID == "" {
		return Subscription{}, errors.New("missing identity")
	}
	if err := ns.clean(); err != nil {
		return Subscription{}, err
	}
	if err := svc.validate.Struct(ns); err != nil {
		return Subscription{}, err
	}

	payload, err := ns.Payload()
	if err != nil {
		return Subscription{}, err
	}
	sub := Subscription{IdentityID: identityID, Payload: payload, UpdatedAt: svc.nowFunc().UTC()}
	if err := svc.store.SaveSubscription(ctx, sub); err != nil {
		return Subscription{}, errors.Wrap(err, "saving subscription")
	}
	return sub, nil
}

func (svc *Service) Unregister(ctx context.Context, identityID string) error {
	return errors.Wrap(svc.store.DeleteSubscription(ctx, core.CleanString(identityID)), "deleting subscription")
}
