// Package credits keeps a client-facing view of the current user's credit
// balance: a cached value refreshed from the billing store, with optimistic
// local mutation between refreshes. It replaces ambient context lookups
// with an explicit, injectable service object whose state changes are
// observable through snapshot subscriptions.
package credits

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/chatloom/chatloom/pkg/broadcast"
)

// BalanceSource is the narrow read capability the tracker needs from the
// billing store.
type BalanceSource interface {
	GetCredits(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Snapshot is one observable state of the tracker. Balance is nil while no
// authenticated identity is set or the first fetch has not completed.
type Snapshot struct {
	Balance *int64
	Loading bool
	Err     string
}

// Tracker caches the credit balance for the currently authenticated user.
// All methods are safe for concurrent use. Optimistic mutations are local
// only and are overwritten by the next Refresh.
type Tracker struct {
	source BalanceSource
	log    *slog.Logger
	events *broadcast.Broadcaster[Snapshot]

	mu      sync.Mutex
	userID  *uuid.UUID
	balance *int64
	loading bool
	errMsg  string
}

// NewTracker wires a tracker to its balance source.
func NewTracker(source BalanceSource, log *slog.Logger) *Tracker {
	if source == nil {
		panic("credits: BalanceSource is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		source: source,
		log:    log,
		events: broadcast.New[Snapshot](8),
	}
}

// SetIdentity records the authenticated user and refreshes the balance.
// Calling it with a new user ID models login or account switching.
func (t *Tracker) SetIdentity(ctx context.Context, userID uuid.UUID) {
	t.mu.Lock()
	t.userID = &userID
	t.mu.Unlock()
	_ = t.Refresh(ctx)
}

// ClearIdentity models logout: the balance becomes unknown, not zero.
func (t *Tracker) ClearIdentity() {
	t.mu.Lock()
	t.userID = nil
	t.balance = nil
	t.loading = false
	t.errMsg = ""
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.events.Publish(snap)
}

// Refresh re-fetches the balance from the store. On failure the balance is
// forced to zero rather than kept: a stale high balance must never survive
// an error.
func (t *Tracker) Refresh(ctx context.Context) error {
	t.mu.Lock()
	if t.userID == nil {
		t.balance = nil
		t.loading = false
		t.errMsg = ""
		snap := t.snapshotLocked()
		t.mu.Unlock()
		t.events.Publish(snap)
		return nil
	}
	userID := *t.userID
	t.loading = true
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.events.Publish(snap)

	value, err := t.source.GetCredits(ctx, userID)

	t.mu.Lock()
	t.loading = false
	if err != nil {
		t.log.ErrorContext(ctx, "failed to fetch credits, falling back to zero",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		zero := int64(0)
		t.balance = &zero
		t.errMsg = "failed to fetch credits"
	} else {
		t.balance = &value
		t.errMsg = ""
	}
	snap = t.snapshotLocked()
	t.mu.Unlock()
	t.events.Publish(snap)
	return err
}

// Set overwrites the cached balance with an absolute value.
func (t *Tracker) Set(value int64) {
	t.mu.Lock()
	t.balance = &value
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.events.Publish(snap)
}

// Deduct optimistically lowers the cached balance, clamping at zero. A nil
// (unknown) balance stays unknown.
func (t *Tracker) Deduct(amount int64) {
	t.mu.Lock()
	if t.balance != nil {
		next := max(*t.balance-amount, 0)
		t.balance = &next
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.events.Publish(snap)
}

// Add optimistically raises the cached balance.
func (t *Tracker) Add(amount int64) {
	t.mu.Lock()
	if t.balance != nil {
		next := *t.balance + amount
		t.balance = &next
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.events.Publish(snap)
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe returns a channel of state snapshots. The subscription ends
// when ctx is cancelled.
func (t *Tracker) Subscribe(ctx context.Context) <-chan Snapshot {
	return t.events.Subscribe(ctx)
}

// Close releases all subscriptions.
func (t *Tracker) Close() {
	t.events.Close()
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: t.loading, Err: t.errMsg}
	if t.balance != nil {
		v := *t.balance
		snap.Balance = &v
	}
	return snap
}
