package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chatloom/chatloom/pkg/billing"
)

func TestCheckoutService_CreateSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing parameters rejected before any calls", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name   string
			params billing.CheckoutParams
		}{
			{"no price", billing.CheckoutParams{UserID: uuid.NewString(), CustomerEmail: "a@b.com"}},
			{"no user", billing.CheckoutParams{PriceID: "price_pro", CustomerEmail: "a@b.com"}},
			{"no email", billing.CheckoutParams{PriceID: "price_pro", UserID: uuid.NewString()}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				provider := &mockProvider{}
				store := &mockStore{}
				svc := billing.NewCheckoutService(provider, store, "https://app.example.com", nil)

				_, err := svc.CreateSession(ctx, tc.params)
				assert.ErrorIs(t, err, billing.ErrMissingParameter)
				provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
				provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
				store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
				store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("nil provider reports not configured", func(t *testing.T) {
		t.Parallel()
		svc := billing.NewCheckoutService(nil, &mockStore{}, "https://app.example.com", nil)

		_, err := svc.CreateSession(ctx, billing.CheckoutParams{
			PriceID:       "price_pro",
			UserID:        uuid.NewString(),
			CustomerEmail: "a@b.com",
		})
		assert.ErrorIs(t, err, billing.ErrNotConfigured)
	})

	t.Run("existing customer is reused, never recreated", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		provider := &mockProvider{}
		store := &mockStore{}
		svc := billing.NewCheckoutService(provider, store, "https://app.example.com", nil)

		store.On("Get", mock.Anything, userID).Return(&billing.User{
			ID:               userID,
			StripeCustomerID: "cus_existing",
		}, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req billing.CheckoutRequest) bool {
			return req.CustomerID == "cus_existing" && req.PriceID == "price_pro"
		})).Return(&billing.CheckoutSession{ID: "cs_1", URL: "https://checkout/cs_1"}, nil)

		session, err := svc.CreateSession(ctx, billing.CheckoutParams{
			PriceID:       "price_pro",
			UserID:        userID.String(),
			CustomerEmail: "a@b.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "cs_1", session.ID)
		provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("first checkout creates customer and inactive record", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		provider := &mockProvider{}
		store := &mockStore{}
		svc := billing.NewCheckoutService(provider, store, "https://app.example.com", nil)

		store.On("Get", mock.Anything, userID).Return(nil, billing.ErrUserNotFound)
		provider.On("CreateCustomer", mock.Anything, "a@b.com", userID).Return("cus_new", nil)
		store.On("Upsert", mock.Anything, mock.MatchedBy(func(u *billing.User) bool {
			return u.ID == userID &&
				u.StripeCustomerID == "cus_new" &&
				u.Status == billing.StatusInactive &&
				u.CreditsAvailable == 0
		})).Return(nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req billing.CheckoutRequest) bool {
			return req.CustomerID == "cus_new" &&
				req.UserID == userID &&
				req.SuccessURL == "https://app.example.com/success?session_id={CHECKOUT_SESSION_ID}" &&
				req.CancelURL == "https://app.example.com/pricing"
		})).Return(&billing.CheckoutSession{ID: "cs_2", URL: "https://checkout/cs_2"}, nil)

		session, err := svc.CreateSession(ctx, billing.CheckoutParams{
			PriceID:       "price_pro",
			UserID:        userID.String(),
			CustomerEmail: "a@b.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://checkout/cs_2", session.URL)
		provider.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("record upsert failure does not abort checkout", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		provider := &mockProvider{}
		store := &mockStore{}
		svc := billing.NewCheckoutService(provider, store, "https://app.example.com", nil)

		store.On("Get", mock.Anything, userID).Return(nil, billing.ErrUserNotFound)
		provider.On("CreateCustomer", mock.Anything, "a@b.com", userID).Return("cus_new", nil)
		store.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db timeout"))
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(&billing.CheckoutSession{ID: "cs_3", URL: "https://checkout/cs_3"}, nil)

		session, err := svc.CreateSession(ctx, billing.CheckoutParams{
			PriceID:       "price_pro",
			UserID:        userID.String(),
			CustomerEmail: "a@b.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "cs_3", session.ID)
	})

	t.Run("store lookup failure aborts checkout", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		provider := &mockProvider{}
		store := &mockStore{}
		svc := billing.NewCheckoutService(provider, store, "https://app.example.com", nil)

		store.On("Get", mock.Anything, userID).Return(nil, errors.New("connection refused"))

		_, err := svc.CreateSession(ctx, billing.CheckoutParams{
			PriceID:       "price_pro",
			UserID:        userID.String(),
			CustomerEmail: "a@b.com",
		})
		assert.ErrorIs(t, err, billing.ErrStoreFailure)
		provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	})

	t.Run("provider session failure surfaces as upstream error", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		provider := &mockProvider{}
		store := &mockStore{}
		svc := billing.NewCheckoutService(provider, store, "https://app.example.com", nil)

		store.On("Get", mock.Anything, userID).Return(&billing.User{
			ID:               userID,
			StripeCustomerID: "cus_existing",
		}, nil)
		provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
			Return(nil, errors.New("stripe: 500"))

		_, err := svc.CreateSession(ctx, billing.CheckoutParams{
			PriceID:       "price_pro",
			UserID:        userID.String(),
			CustomerEmail: "a@b.com",
		})
		assert.ErrorIs(t, err, billing.ErrProviderFailure)
	})
}
