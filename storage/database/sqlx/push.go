package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/push"
)

type subscriptionRow struct {
	IdentityID string    `db:"identity_id"`
	Payload    []byte    `db:"payload"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type pushRepository struct {
	exec core.DBExecutor
}

var _ push.Store = (*pushRepository)(nil) // interface compliance check

func NewPushRepository(exec core.DBExecutor) *pushRepository {
	return &pushRepository{exec: exec}
}

func (repo pushRepository) GetSubscription(ctx context.Context, identityID string) (push.Subscription, error) {
	var row subscriptionRow
	q := `SELECT identity_id, payload, updated_at FROM push_subscriptions WHERE identity_id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, identityID); err != nil {
		return push.Subscription{}, notFound(err)
	}
	return push.Subscription{IdentityID: row.IdentityID, Payload: row.Payload, UpdatedAt: row.UpdatedAt}, nil
}

func (repo pushRepository) SaveSubscription(ctx context.Context, sub push.Subscription) error {
	q := `
INSERT INTO push_subscriptions (identity_id, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (identity_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	// jsonb is sent as text; a []byte would be encoded as bytea
	_, err := repo.exec.ExecContext(ctx, q, sub.IdentityID, string(sub.Payload), sub.UpdatedAt.UTC())
	return errors.Wrap(err, "upserting push subscription")
}

func (repo pushRepository) DeleteSubscription(ctx context.Context, identityID string) error {
	_, err := repo.exec.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE identity_id = $1`, identityID)
	return errors.Wrap(err, "deleting push subscription")
}

func (repo pushRepository) DeleteStaleSubscription(ctx context.Context, identityID, endpoint string) (bool, error) {
	q := `DELETE FROM push_subscriptions WHERE identity_id = $1 AND payload->>'endpoint' = $2`
	res, err := repo.exec.ExecContext(ctx, q, identityID, endpoint)
	if err != nil {
		return false, errors.Wrap(err, "deleting stale push subscription")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "deleting stale push subscription")
	}
	return n > 0, nil
}
