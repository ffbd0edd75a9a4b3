package billing

import (
	"context"
	"log/slog"
)

// NotificationKind identifies a subscription lifecycle notification.
type NotificationKind string

const (
	NotificationSubscriptionActivated NotificationKind = "subscription_activated"
	NotificationSubscriptionCanceled  NotificationKind = "subscription_canceled"
)

// Notifier delivers subscription lifecycle notifications to the user.
// Delivery is best effort; the reconciler never fails an event over it.
type Notifier interface {
	NotifySubscriptionChange(ctx context.Context, email string, kind NotificationKind, user *User) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, email string, kind NotificationKind, user *User) error

func (f NotifierFunc) NotifySubscriptionChange(ctx context.Context, email string, kind NotificationKind, user *User) error {
	return f(ctx, email, kind, user)
}

func (r *Reconciler) notify(ctx context.Context, email string, kind NotificationKind, user *User) {
	if r.notifier == nil || email == "" {
		return
	}
	if err := r.notifier.NotifySubscriptionChange(ctx, email, kind, user); err != nil {
		r.log.ErrorContext(ctx, "failed to send billing notification",
			slog.String("kind", string(kind)),
			slog.Any("error", err))
	}
}
