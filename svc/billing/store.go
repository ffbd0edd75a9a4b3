package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatloom/chatloom/pkg/billing"
	"github.com/chatloom/chatloom/pkg/pg"
)

// PgUserStore implements billing.UserStore on PostgreSQL.
type PgUserStore struct {
	pool *pgxpool.Pool
}

// NewPgUserStore creates a store over the given pool.
func NewPgUserStore(pool *pgxpool.Pool) *PgUserStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PgUserStore{pool: pool}
}

const userColumns = `id, email, stripe_customer_id, stripe_subscription_id,
	subscription_status, price_id, credits_available, current_period_end, last_event_at`

func (s *PgUserStore) Get(ctx context.Context, userID uuid.UUID) (*billing.User, error) {
	return s.scanOne(ctx, `SELECT `+userColumns+` FROM billing_users WHERE id = $1`, userID)
}

func (s *PgUserStore) FindByCustomerID(ctx context.Context, customerID string) (*billing.User, error) {
	return s.scanOne(ctx, `SELECT `+userColumns+` FROM billing_users WHERE stripe_customer_id = $1`, customerID)
}

// Upsert inserts or fully replaces the record keyed by user ID. The
// single-statement upsert keeps concurrent webhook deliveries atomic per
// user.
func (s *PgUserStore) Upsert(ctx context.Context, user *billing.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_users (id, email, stripe_customer_id, stripe_subscription_id,
			subscription_status, price_id, credits_available, current_period_end, last_event_at,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			subscription_status = EXCLUDED.subscription_status,
			price_id = EXCLUDED.price_id,
			credits_available = EXCLUDED.credits_available,
			current_period_end = EXCLUDED.current_period_end,
			last_event_at = EXCLUDED.last_event_at,
			updated_at = NOW()`,
		user.ID, user.Email, user.StripeCustomerID, user.StripeSubscriptionID,
		string(user.Status), user.PriceID, user.CreditsAvailable,
		user.CurrentPeriodEnd, user.LastEventAt)
	if err != nil {
		return fmt.Errorf("upsert billing user: %w", err)
	}
	return nil
}

func (s *PgUserStore) CancelBySubscriptionID(ctx context.Context, subscriptionID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE billing_users
		SET subscription_status = $2, credits_available = 0, updated_at = NOW()
		WHERE stripe_subscription_id = $1`,
		subscriptionID, string(billing.StatusCanceled))
	if err != nil {
		return fmt.Errorf("cancel subscription %s: %w", subscriptionID, err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrUserNotFound
	}
	return nil
}

func (s *PgUserStore) GetCredits(ctx context.Context, userID uuid.UUID) (int64, error) {
	var credits int64
	err := s.pool.QueryRow(ctx,
		`SELECT credits_available FROM billing_users WHERE id = $1`, userID).Scan(&credits)
	if err != nil {
		if pg.IsNotFound(err) {
			return 0, billing.ErrUserNotFound
		}
		return 0, fmt.Errorf("get credits for %s: %w", userID, err)
	}
	return credits, nil
}

func (s *PgUserStore) scanOne(ctx context.Context, query string, arg any) (*billing.User, error) {
	var (
		user   billing.User
		status string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.StripeCustomerID, &user.StripeSubscriptionID,
		&status, &user.PriceID, &user.CreditsAvailable,
		&user.CurrentPeriodEnd, &user.LastEventAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, billing.ErrUserNotFound
		}
		return nil, fmt.Errorf("query billing user: %w", err)
	}
	user.Status = billing.Status(status)
	return &user, nil
}
