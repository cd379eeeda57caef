package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/koda-tec/sistema-escolar/core"
)

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// Extend returns t moved forward by one plan period.
func (p Plan) Extend(t time.Time) time.Time {
	if p == PlanYearly {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusInactive SubscriptionStatus = "inactive"
)

// Subscription is the paywall state of one school.
type Subscription struct {
	SchoolID  string             `json:"schoolId" db:"school_id"`
	Plan      Plan               `json:"plan" db:"plan"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	PaidUntil null.Time          `json:"paidUntil" db:"paid_until"`
	UpdatedAt time.Time          `json:"updatedAt" db:"updated_at"`
}

// Active reports whether the school may use paid features at t.
func (s Subscription) Active(t time.Time) bool {
	return s.Status == StatusActive && s.PaidUntil.Valid && s.PaidUntil.Time.After(t)
}

// Payment is one approved gateway payment; ID is the gateway's payment id.
type Payment struct {
	ID        string    `json:"id" db:"id"`
	SchoolID  string    `json:"schoolId" db:"school_id"`
	PayerID   string    `json:"payerId" db:"payer_id"`
	Plan      Plan      `json:"plan" db:"plan"`
	Amount    int64     `json:"amount" db:"amount"` // cents
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PaymentNotice is the body of a gateway webhook call.
type PaymentNotice struct {
	PaymentID string `json:"paymentId" validate:"required"`
	Status    string `json:"status" validate:"required"`
	SchoolID  string `json:"schoolId" validate:"required"`
	PayerID   string `json:"payerId" validate:"required"`
	Plan      Plan   `json:"plan" validate:"required,oneof=monthly yearly"`
	Amount    int64  `json:"amount" validate:"gte=0"`
}

const NoticeApproved = "approved"

func (pn *PaymentNotice) Validate(validate *validator.Validate) error {
	pn.PaymentID = core.CleanString(pn.PaymentID)
	pn.Status = core.CleanString(pn.Status, true /* lower */)
	pn.SchoolID = core.CleanString(pn.SchoolID)
	pn.PayerID = core.CleanString(pn.PayerID)
	pn.Plan = Plan(core.CleanString(string(pn.Plan), true /* lower */))
	return validate.Struct(pn)
}
