package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// CheckoutParams is the caller-supplied input for a checkout attempt.
// All fields are required.
type CheckoutParams struct {
	PriceID       string
	UserID        string
	CustomerEmail string
}

// CheckoutService resolves a billing customer for a user and opens a
// provider-hosted checkout session.
type CheckoutService struct {
	provider PaymentProvider
	store    UserStore
	baseURL  string
	log      *slog.Logger
}

// NewCheckoutService wires a checkout service. A nil provider is allowed so
// a deployment without provider credentials degrades to explicit
// ErrNotConfigured responses instead of failing at startup.
func NewCheckoutService(provider PaymentProvider, store UserStore, baseURL string, log *slog.Logger) *CheckoutService {
	if store == nil {
		panic("billing: UserStore is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	return &CheckoutService{
		provider: provider,
		store:    store,
		baseURL:  baseURL,
		log:      log,
	}
}

// CreateSession validates params, reuses or creates the provider customer,
// and opens a subscription-mode checkout session carrying the user ID in
// its metadata. The success and cancel redirects are derived from the
// configured base URL.
func (s *CheckoutService) CreateSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if params.PriceID == "" || params.UserID == "" || params.CustomerEmail == "" {
		return nil, ErrMissingParameter
	}
	userID, err := uuid.Parse(params.UserID)
	if err != nil {
		return nil, errors.Join(ErrMissingParameter, err)
	}

	if s.provider == nil {
		return nil, ErrNotConfigured
	}

	customerID, err := s.resolveCustomer(ctx, userID, params.CustomerEmail)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		PriceID:    params.PriceID,
		CustomerID: customerID,
		UserID:     userID,
		SuccessURL: s.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/pricing",
	})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}

	s.log.InfoContext(ctx, "checkout session created",
		slog.String("user_id", userID.String()),
		slog.String("session_id", session.ID),
		slog.String("price_id", params.PriceID))

	return session, nil
}

// resolveCustomer returns the user's provider customer ID, creating and
// recording one when the user has none yet. A customer ID is assigned at
// most once per user and never reassigned.
func (s *CheckoutService) resolveCustomer(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	user, err := s.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return "", errors.Join(ErrStoreFailure, err)
	}

	if user != nil && user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, email, userID)
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}

	// Best effort: losing this upsert only delays the record until the
	// first webhook event, so checkout proceeds regardless.
	if err := s.store.Upsert(ctx, &User{
		ID:               userID,
		Email:            email,
		StripeCustomerID: customerID,
		Status:           StatusInactive,
		CreditsAvailable: 0,
	}); err != nil {
		s.log.ErrorContext(ctx, "failed to record new billing customer",
			slog.String("user_id", userID.String()),
			slog.String("customer_id", customerID),
			slog.Any("error", err))
	}

	return customerID, nil
}
