package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Reconciler consumes verified provider webhook events and deterministically
// rewrites the user billing record. It is stateless; handling the same event
// twice recomputes the same target row, so at-least-once delivery is safe.
type Reconciler struct {
	provider PaymentProvider
	store    UserStore
	catalog  *Catalog
	notifier Notifier
	log      *slog.Logger
}

// ReconcilerOption configures optional reconciler collaborators.
type ReconcilerOption func(*Reconciler)

// WithNotifier attaches a best-effort notifier for subscription state
// changes. Notification failures are logged, never surfaced.
func WithNotifier(n Notifier) ReconcilerOption {
	return func(r *Reconciler) { r.notifier = n }
}

// NewReconciler wires a reconciler. Like the checkout service, a nil
// provider degrades webhook handling to ErrNotConfigured.
func NewReconciler(provider PaymentProvider, store UserStore, catalog *Catalog, log *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	if store == nil {
		panic("billing: UserStore is required")
	}
	if catalog == nil {
		panic("billing: Catalog is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &Reconciler{
		provider: provider,
		store:    store,
		catalog:  catalog,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleEvent verifies and applies one webhook delivery. Signature failures
// and unknown payloads return ErrInvalidSignature with no state change;
// unhandled event types are acknowledged as no-ops.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	if r.provider == nil {
		return ErrNotConfigured
	}

	event, err := r.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return r.applySubscription(ctx, event)
	case EventSubscriptionDeleted:
		return r.cancelSubscription(ctx, event)
	default:
		r.log.DebugContext(ctx, "ignoring webhook event",
			slog.String("event", event.ProviderEvent))
		return nil
	}
}

// applySubscription maps a created/updated event onto a full-row upsert.
func (r *Reconciler) applySubscription(ctx context.Context, event *WebhookEvent) error {
	userID, err := r.resolveUser(ctx, event)
	if err != nil {
		return err
	}

	existing, err := r.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return errors.Join(ErrStoreFailure, err)
	}

	// Provider event ordering is not guaranteed. Skip events older than the
	// last one applied so a delayed delivery cannot regress the record.
	if existing != nil && existing.LastEventAt != nil &&
		!event.OccurredAt.IsZero() && event.OccurredAt.Before(*existing.LastEventAt) {
		r.log.WarnContext(ctx, "skipping stale subscription event",
			slog.String("user_id", userID.String()),
			slog.String("event", event.ProviderEvent),
			slog.Time("event_at", event.OccurredAt),
			slog.Time("last_applied_at", *existing.LastEventAt))
		return nil
	}

	email := r.resolveEmail(ctx, event, existing)

	var credits int64
	if event.Status == StatusActive {
		credits = r.catalog.CreditsFor(event.PriceID)
	}

	occurredAt := event.OccurredAt
	user := &User{
		ID:                   userID,
		Email:                email,
		StripeCustomerID:     event.CustomerID,
		StripeSubscriptionID: event.SubscriptionID,
		Status:               event.Status,
		PriceID:              event.PriceID,
		CreditsAvailable:     credits,
		CurrentPeriodEnd:     event.CurrentPeriodEnd,
	}
	if !occurredAt.IsZero() {
		user.LastEventAt = &occurredAt
	}

	if err := r.store.Upsert(ctx, user); err != nil {
		return errors.Join(ErrStoreFailure, fmt.Errorf("upsert user %s: %w", userID, err))
	}

	r.log.InfoContext(ctx, "subscription reconciled",
		slog.String("user_id", userID.String()),
		slog.String("subscription_id", event.SubscriptionID),
		slog.String("status", string(event.Status)),
		slog.Int64("credits", credits))

	if event.Status == StatusActive && (existing == nil || existing.Status != StatusActive) {
		r.notify(ctx, email, NotificationSubscriptionActivated, user)
	}

	return nil
}

// cancelSubscription handles deletion events. The user ID comes from event
// metadata only; without it the event is acknowledged untouched.
func (r *Reconciler) cancelSubscription(ctx context.Context, event *WebhookEvent) error {
	if event.UserID == "" {
		r.log.WarnContext(ctx, "subscription deleted without user metadata, skipping",
			slog.String("subscription_id", event.SubscriptionID))
		return nil
	}

	if err := r.store.CancelBySubscriptionID(ctx, event.SubscriptionID); err != nil {
		// Not fatal: the provider already considers the subscription gone
		// and redelivery would not produce a different outcome.
		r.log.ErrorContext(ctx, "failed to cancel subscription record",
			slog.String("subscription_id", event.SubscriptionID),
			slog.Any("error", err))
		return nil
	}

	r.log.InfoContext(ctx, "subscription canceled",
		slog.String("user_id", event.UserID),
		slog.String("subscription_id", event.SubscriptionID))

	if user, err := r.userByMetadataID(ctx, event.UserID); err == nil {
		r.notify(ctx, user.Email, NotificationSubscriptionCanceled, user)
	}

	return nil
}

// resolveUser finds the owning user for a subscription event, in order:
// event metadata, provider customer metadata, then a reverse store lookup
// by customer ID.
func (r *Reconciler) resolveUser(ctx context.Context, event *WebhookEvent) (uuid.UUID, error) {
	if event.UserID != "" {
		if id, err := uuid.Parse(event.UserID); err == nil {
			return id, nil
		}
		r.log.WarnContext(ctx, "malformed user ID in event metadata",
			slog.String("user_id", event.UserID))
	}

	if event.CustomerID != "" {
		if customer, err := r.provider.GetCustomer(ctx, event.CustomerID); err == nil && customer.UserID != "" {
			if id, err := uuid.Parse(customer.UserID); err == nil {
				return id, nil
			}
		} else if err != nil {
			r.log.WarnContext(ctx, "failed to fetch provider customer",
				slog.String("customer_id", event.CustomerID),
				slog.Any("error", err))
		}

		if user, err := r.store.FindByCustomerID(ctx, event.CustomerID); err == nil {
			return user.ID, nil
		} else if !errors.Is(err, ErrUserNotFound) {
			return uuid.Nil, errors.Join(ErrStoreFailure, err)
		}
	}

	return uuid.Nil, errors.Join(ErrUserNotResolved,
		fmt.Errorf("subscription %s, customer %s", event.SubscriptionID, event.CustomerID))
}

// resolveEmail prefers the provider customer's email, falling back to
// whatever is already stored. Either may be empty.
func (r *Reconciler) resolveEmail(ctx context.Context, event *WebhookEvent, existing *User) string {
	if event.CustomerID != "" {
		if customer, err := r.provider.GetCustomer(ctx, event.CustomerID); err == nil && customer.Email != "" {
			return customer.Email
		}
	}
	if existing != nil {
		return existing.Email
	}
	return ""
}

func (r *Reconciler) userByMetadataID(ctx context.Context, raw string) (*User, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return r.store.Get(ctx, id)
}
