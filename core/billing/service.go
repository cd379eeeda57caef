package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/koda-tec/sistema-escolar/core"
)

var ErrBadSignature = errors.New("invalid webhook signature")

type (
	Repository interface {
		GetSubscription(ctx context.Context, schoolID string) (Subscription, error)
		// ApplyPayment atomically records p and stores apply(current) as the school subscription.
		// It returns applied=false, and changes nothing, when p.ID was already recorded.
		// current is the zero Subscription (with SchoolID set) when the school never paid.
		ApplyPayment(ctx context.Context, p Payment, apply func(current Subscription) Subscription) (sub Subscription, applied bool, err error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		secret   []byte
		nowFunc  func() time.Time // mockable
	}

	// Outcome is the result of processing one webhook call.
	Outcome struct {
		Subscription Subscription
		Changed      bool
	}
)

func NewService(repo Repository, validate *validator.Validate, conf core.PaymentsConfig) *Service {
	return &Service{repo: repo, validate: validate, secret: []byte(conf.WebhookSecret), nowFunc: time.Now}
}

// VerifySignature checks the hex HMAC-SHA256 of body ("sha256=" prefix optional).
func (svc *Service) VerifySignature(body []byte, signature string) error {
	if len(svc.secret) == 0 {
		return errors.Wrap(ErrBadSignature, "webhook secret not configured")
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(core.CleanString(signature, true /* lower */), "sha256="))
	if err != nil {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, svc.secret)
	mac.Write(body)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

// Sign returns the signature VerifySignature expects for body.
func (svc *Service) Sign(body []byte) string {
	mac := hmac.New(sha256.New, svc.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ApprovePayment activates the school subscription for one more plan period.
// Notices that are not approved, and re-deliveries of a processed payment, change nothing.
func (svc *Service) ApprovePayment(ctx context.Context, pn PaymentNotice) (Outcome, error) {
	if err := pn.Validate(svc.validate); err != nil {
		return Outcome{}, err
	}
	if pn.Status != NoticeApproved {
		sub, err := svc.repo.GetSubscription(ctx, pn.SchoolID)
		if err != nil && errors.Cause(err) != core.ErrNotFound {
			return Outcome{}, errors.Wrap(err, "getting subscription")
		}
		return Outcome{Subscription: sub}, nil
	}

	now := svc.nowFunc().UTC()
	payment := Payment{
		ID:        pn.PaymentID,
		SchoolID:  pn.SchoolID,
		PayerID:   pn.PayerID,
		Plan:      pn.Plan,
		Amount:    pn.Amount,
		CreatedAt: now,
	}
	sub, applied, err := svc.repo.ApplyPayment(ctx, payment, func(cur Subscription) Subscription {
		from := now
		if cur.PaidUntil.Valid && cur.PaidUntil.Time.After(now) {
			from = cur.PaidUntil.Time
		}
		cur.SchoolID = pn.SchoolID
		cur.Plan = pn.Plan
		cur.Status = StatusActive
		cur.PaidUntil = null.TimeFrom(pn.Plan.Extend(from))
		cur.UpdatedAt = now
		return cur
	})
	if err != nil {
		return Outcome{}, errors.Wrap(err, "applying payment")
	}
	return Outcome{Subscription: sub, Changed: applied}, nil
}

func (svc *Service) GetSubscription(ctx context.Context, schoolID string) (Subscription, error) {
	sub, err := svc.repo.GetSubscription(ctx, schoolID)
	return sub, errors.Wrap(err, "getting subscription")
}
