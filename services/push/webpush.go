package webpushsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/notification"
	"github.com/koda-tec/sistema-escolar/core/push"
)

var ErrNotConfigured = errors.New("web push is not configured")

// Service delivers notification payloads to stored browser subscriptions.
type Service struct {
	store  push.Store
	opts   webpush.Options // VAPID details, built once
	prune  bool
	logger core.Logger
}

var _ notification.PushChannel = (*Service)(nil)

// NewService returns ErrNotConfigured when the VAPID key pair is missing.
func NewService(store push.Store, conf core.PushConfig, logger core.Logger) (*Service, error) {
	if conf.VAPIDPublicKey == "" || conf.VAPIDPrivateKey == "" {
		return nil, ErrNotConfigured
	}
	return &Service{
		store: store,
		opts: webpush.Options{
			HTTPClient:      &http.Client{Timeout: conf.Timeout},
			Subscriber:      conf.Subscriber,
			TTL:             conf.TTL,
			Urgency:         webpush.UrgencyNormal,
			VAPIDPublicKey:  conf.VAPIDPublicKey,
			VAPIDPrivateKey: conf.VAPIDPrivateKey,
		},
		prune:  conf.PruneExpired,
		logger: logger,
	}, nil
}

func (svc *Service) VAPIDPublicKey() string { return svc.opts.VAPIDPublicKey }

// Push sends msg to the identity's subscription.
// A 404 or 410 from the push service means the subscription is gone for good;
// it is then deleted (when pruning is enabled) and the attempt still counts as failed.
func (svc *Service) Push(ctx context.Context, identityID string, msg notification.PushMessage) (notification.Result, error) {
	sub, err := svc.store.GetSubscription(ctx, identityID)
	if errors.Cause(err) == core.ErrNotFound {
		return notification.ResultSkipped, nil
	} else if err != nil {
		return notification.ResultFailed, errors.Wrap(err, "loading subscription")
	}

	var ws webpush.Subscription
	if err := json.Unmarshal(sub.Payload, &ws); err != nil {
		return notification.ResultFailed, errors.Wrap(err, "decoding subscription")
	}
	if ws.Endpoint == "" {
		return notification.ResultFailed, errors.New("subscription has no endpoint")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return notification.ResultFailed, errors.Wrap(err, "encoding payload")
	}

	opts := svc.opts
	res, err := webpush.SendNotificationWithContext(ctx, body, &ws, &opts)
	if err != nil {
		return notification.ResultFailed, errors.Wrap(err, "sending push")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		if svc.prune {
			svc.pruneSubscription(ctx, identityID, ws.Endpoint, res.StatusCode)
		}
		return notification.ResultFailed, errors.Errorf("subscription expired (status %d)", res.StatusCode)
	case res.StatusCode >= http.StatusBadRequest:
		return notification.ResultFailed, errors.Errorf("push service status %d", res.StatusCode)
	}
	return notification.ResultOK, nil
}

// pruneSubscription deletes the subscription only if it still points at the expired
// endpoint: a registration made while the push was in flight is kept.
func (svc *Service) pruneSubscription(ctx context.Context, identityID, endpoint string, status int) {
	deleted, err := svc.store.DeleteStaleSubscription(ctx, identityID, endpoint)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("pruning push subscription: %v", err), err, map[string]interface{}{"identity": identityID})
		return
	}
	if !deleted {
		svc.logger.Info("push subscription replaced, not pruned", map[string]interface{}{"identity": identityID, "status": status})
		return
	}
	svc.logger.Info("pruned expired push subscription", map[string]interface{}{"identity": identityID, "status": status})
}

// GenerateVAPIDKeys returns a new (public, private) VAPID key pair.
func GenerateVAPIDKeys() (string, string, error) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", errors.Wrap(err, "generating vapid keys")
	}
	return pub, priv, nil
}
