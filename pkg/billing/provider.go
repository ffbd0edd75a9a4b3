package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentProvider is the minimal surface this service needs from a payment
// vendor: hosted checkout, customer records, and verified webhook parsing.
// Keeping it narrow lets tests run against a mock and keeps the domain code
// free of SDK types.
type PaymentProvider interface {
	// CreateCustomer registers a billing customer tagged with the user ID
	// in its metadata so webhook events can be correlated later.
	CreateCustomer(ctx context.Context, email string, userID uuid.UUID) (customerID string, err error)

	// GetCustomer fetches a customer by provider ID. Deleted customers
	// return ErrProviderFailure.
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)

	// CreateCheckoutSession opens a hosted, subscription-mode checkout.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// ParseWebhook verifies the payload signature and returns a normalized
	// event. Invalid signatures return ErrInvalidSignature.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// Customer is the provider-side customer record.
type Customer struct {
	ID     string
	Email  string
	UserID string // user ID from customer metadata, empty if untagged
}

// CheckoutRequest carries everything needed to open a checkout session.
type CheckoutRequest struct {
	PriceID    string
	CustomerID string
	UserID     uuid.UUID
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a provider-hosted payment flow instance.
type CheckoutSession struct {
	ID  string
	URL string
}

// EventType is the normalized webhook event category.
type EventType string

const (
	EventSubscriptionCreated EventType = "subscription_created"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"
	// EventIgnored covers every provider event this service does not act
	// on; such events are acknowledged without state changes.
	EventIgnored EventType = "ignored"
)

// WebhookEvent is a provider webhook notification reduced to the fields the
// reconciler consumes.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string // original provider event name, for logging
	SubscriptionID string
	CustomerID     string
	UserID         string // user ID from event metadata, empty if absent
	Status         Status
	PriceID        string
	CurrentPeriodEnd *time.Time
	OccurredAt     time.Time // provider-side event creation time
}
