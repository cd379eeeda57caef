package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/billing"
)

type billingRepository struct {
	db core.DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db core.DB) *billingRepository {
	return &billingRepository{db: db}
}

const subscriptionColumns = `school_id, plan, status, paid_until, updated_at`

func getSubscription(ctx context.Context, exec core.DBExecutor, schoolID string, forUpdate bool) (billing.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM school_subscriptions WHERE school_id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	var sub billing.Subscription
	if err := exec.GetContext(ctx, &sub, q, schoolID); err != nil {
		return billing.Subscription{}, notFound(err)
	}
	return sub, nil
}

func (repo billingRepository) GetSubscription(ctx context.Context, schoolID string) (billing.Subscription, error) {
	return getSubscription(ctx, repo.db, schoolID, false)
}

func (repo billingRepository) ApplyPayment(ctx context.Context, p billing.Payment, apply func(billing.Subscription) billing.Subscription) (billing.Subscription, bool, error) {
	var (
		sub     billing.Subscription
		applied bool
	)
	err := core.InTx(ctx, repo.db, func(tx core.DBExecutor) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO payments (id, school_id, payer_id, plan, amount, created_at) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`,
			p.ID, p.SchoolID, p.PayerID, string(p.Plan), p.Amount, p.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "inserting payment")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "inserting payment")
		}

		cur, err := getSubscription(ctx, tx, p.SchoolID, true)
		if err != nil && err != core.ErrNotFound {
			return errors.Wrap(err, "locking subscription")
		}
		if n == 0 { // already processed
			sub = cur
			return nil
		}
		if err == core.ErrNotFound {
			cur = billing.Subscription{SchoolID: p.SchoolID}
		}

		sub = apply(cur)
		_, err = tx.ExecContext(ctx, `
INSERT INTO school_subscriptions (`+subscriptionColumns+`) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (school_id) DO UPDATE
SET plan = EXCLUDED.plan, status = EXCLUDED.status, paid_until = EXCLUDED.paid_until, updated_at = EXCLUDED.updated_at`,
			sub.SchoolID, string(sub.Plan), string(sub.Status), sub.PaidUntil, sub.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "upserting subscription")
		}
		applied = true
		return nil
	})
	if err != nil {
		return billing.Subscription{}, false, err
	}
	return sub, applied, nil
}
