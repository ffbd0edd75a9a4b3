package billing

import (
	"time"

	"github.com/google/uuid"
)

// Status is a subscription status as reported by the payment provider.
// Unknown provider statuses are stored as-is; the service only branches on
// the values below.
type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusUnpaid   Status = "unpaid"
)

// User is the billing record for one application user. It is created lazily
// on the first checkout attempt or first webhook event, and is never
// deleted: cancellation leaves the row in place with zero credits.
type User struct {
	ID                   uuid.UUID // primary key, stable across the system
	Email                string    // best-effort, may be empty
	StripeCustomerID     string    // assigned once at first checkout, never reassigned
	StripeSubscriptionID string
	Status               Status
	PriceID              string
	CreditsAvailable     int64 // quota snapshot, reset (not accumulated) on reconciliation
	CurrentPeriodEnd     *time.Time
	LastEventAt          *time.Time // provider timestamp of the last applied webhook event
}

// IsActive reports whether the user currently has a paid subscription.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// IsCanceled reports whether the subscription was canceled.
func (u *User) IsCanceled() bool {
	return u.Status == StatusCanceled
}
