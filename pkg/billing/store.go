package billing

import (
	"context"

	"github.com/google/uuid"
)

// UserStore persists billing records. Implementations must apply Upsert
// atomically per user ID; it is the only coordination point between
// concurrent webhook deliveries.
type UserStore interface {
	// Get returns the record for a user, or ErrUserNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*User, error)

	// FindByCustomerID reverse-looks-up a user by provider customer ID,
	// or returns ErrUserNotFound.
	FindByCustomerID(ctx context.Context, customerID string) (*User, error)

	// Upsert inserts or fully replaces the record keyed by user ID.
	Upsert(ctx context.Context, user *User) error

	// CancelBySubscriptionID sets status to canceled and credits to zero
	// on the record holding the given provider subscription ID. Returns
	// ErrUserNotFound when no record matches.
	CancelBySubscriptionID(ctx context.Context, subscriptionID string) error

	// GetCredits returns the current credit balance for a user, or
	// ErrUserNotFound.
	GetCredits(ctx context.Context, userID uuid.UUID) (int64, error)
}
