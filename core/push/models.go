package push

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

// Subscription is the browser-issued push credential of one identity.
// Payload is opaque to the store: {"endpoint": ..., "keys": {"auth": ..., "p256dh": ...}}.
type Subscription struct {
	IdentityID string          `json:"identityId" db:"identity_id"`
	Payload    json.RawMessage `json:"subscription" db:"payload"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

// Endpoint returns the push service url of the subscription, or "" when the payload has none.
func (s Subscription) Endpoint() string {
	var p struct {
		Endpoint string `json:"endpoint"`
	}
	_ = json.Unmarshal(s.Payload, &p)
	return p.Endpoint
}

// Keys are the message encryption keys of a subscription.
type Keys struct {
	Auth   string `json:"auth" validate:"required"`
	P256dh string `json:"p256dh" validate:"required"`
}

// NewSubscription is the body of a push registration request, as produced by
// PushSubscription.toJSON() in the browser.
type NewSubscription struct {
	Endpoint       string `json:"endpoint" validate:"required,url"`
	ExpirationTime *int64 `json:"expirationTime,omitempty"`
	Keys           Keys   `json:"keys"`
}

// Payload returns the stored form of the subscription.
func (ns NewSubscription) Payload() (json.RawMessage, error) {
	b, err := json.Marshal(ns)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling subscription")
	}
	return b, nil
}

func (ns *NewSubscription) clean() error {
	ns.Endpoint = core.CleanString(ns.Endpoint)
	ns.Keys.Auth = core.CleanString(ns.Keys.Auth)
	ns.Keys.P256dh = core.CleanString(ns.Keys.P256dh)
	if u, err := url.Parse(ns.Endpoint); err == nil && u.Scheme != "" && u.Scheme != "https" {
		return core.NewValidationError(nil, core.FieldError{Field: "endpoint", Error: "must be an https url"})
	}
	return nil
}
