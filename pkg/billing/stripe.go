package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/google/uuid"
)

// StripeConfig holds Stripe credentials. The publishable key is not used
// server-side but is exposed to clients through the plans endpoint.
type StripeConfig struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET"`
	PublishableKey string `env:"STRIPE_PUBLISHABLE_KEY"`
}

// Configured reports whether the server-side credentials are present.
func (c StripeConfig) Configured() bool {
	return c.SecretKey != "" && c.WebhookSecret != ""
}

// StripeProvider implements PaymentProvider on the official Stripe SDK.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider validates credentials and installs the global API key.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("stripe secret key is required"))
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.Join(ErrNotConfigured, errors.New("stripe webhook secret is required"))
	}
	stripe.Key = cfg.SecretKey
	return &StripeProvider{webhookSecret: cfg.WebhookSecret}, nil
}

// CreateCustomer registers a Stripe customer tagged with the user ID so
// later webhook events can be correlated even when subscription metadata
// is missing.
func (p *StripeProvider) CreateCustomer(ctx context.Context, email string, userID uuid.UUID) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
		Metadata: map[string]string{
			"user_id": userID.String(),
		},
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return c.ID, nil
}

// GetCustomer fetches a Stripe customer by ID.
func (p *StripeProvider) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	c, err := customer.Get(customerID, &stripe.CustomerParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, fmt.Errorf("fetch stripe customer %s: %w", customerID, err)
	}
	if c.Deleted {
		return nil, fmt.Errorf("stripe customer %s is deleted", customerID)
	}
	return &Customer{
		ID:     c.ID,
		Email:  c.Email,
		UserID: c.Metadata["user_id"],
	}, nil
}

// CreateCheckoutSession opens a subscription-mode hosted checkout. The user
// ID rides in both session and subscription metadata; Stripe copies the
// latter onto the subscription object it creates.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.CustomerID == "" {
		return nil, errors.New("customer ID is required")
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Customer:           stripe.String(req.CustomerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata: map[string]string{
			"user_id": req.UserID.String(),
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": req.UserID.String(),
			},
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the stripe-signature header and normalizes the
// event. The subscription payload is decoded by hand rather than through
// SDK structs: webhook JSON carries the customer as a bare ID string, and
// the period-end field has moved between API versions.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	// Stripe rolls the account API version independently of SDK upgrades;
	// a version mismatch must not make us drop otherwise valid events.
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	out := &WebhookEvent{
		Type:          mapStripeEventType(string(event.Type)),
		ProviderEvent: string(event.Type),
	}
	if event.Created > 0 {
		out.OccurredAt = time.Unix(event.Created, 0).UTC()
	}
	if out.Type == EventIgnored {
		return out, nil
	}

	var sub struct {
		ID               string            `json:"id"`
		Customer         string            `json:"customer"`
		Status           string            `json:"status"`
		Metadata         map[string]string `json:"metadata"`
		CurrentPeriodEnd int64             `json:"current_period_end"`
		Items            struct {
			Data []struct {
				CurrentPeriodEnd int64 `json:"current_period_end"`
				Price            struct {
					ID string `json:"id"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, errors.Join(ErrInvalidSignature, fmt.Errorf("parse subscription payload: %w", err))
	}

	out.SubscriptionID = sub.ID
	out.CustomerID = sub.Customer
	out.Status = Status(sub.Status)
	out.UserID = sub.Metadata["userId"]
	if out.UserID == "" {
		out.UserID = sub.Metadata["user_id"]
	}

	periodEnd := sub.CurrentPeriodEnd
	if len(sub.Items.Data) > 0 {
		out.PriceID = sub.Items.Data[0].Price.ID
		if periodEnd == 0 {
			periodEnd = sub.Items.Data[0].CurrentPeriodEnd
		}
	}
	if periodEnd > 0 {
		t := time.Unix(periodEnd, 0).UTC()
		out.CurrentPeriodEnd = &t
	}

	return out, nil
}

func mapStripeEventType(eventType string) EventType {
	switch eventType {
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	default:
		return EventIgnored
	}
}
