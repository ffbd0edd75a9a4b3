package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chatloom/chatloom/pkg/billing"
)

// Stripe signs payloads up to 64KB; anything larger is not a webhook.
const maxWebhookBody = 64 * 1024

// RouterOptions configures the billing HTTP surface. Checkout and
// Reconciler are required; the rate limit middleware is optional.
type RouterOptions struct {
	Checkout       *billing.CheckoutService
	Reconciler     *billing.Reconciler
	Store          billing.UserStore
	Catalog        *billing.Catalog
	PublishableKey string
	CheckoutLimit  func(http.Handler) http.Handler
	Logger         *slog.Logger
}

type router struct {
	opts RouterOptions
	log  *slog.Logger
}

// Router mounts the billing API.
func Router(opts RouterOptions) chi.Router {
	if opts.Checkout == nil || opts.Reconciler == nil || opts.Store == nil {
		panic("billing: Checkout, Reconciler and Store are required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := &router{opts: opts, log: log}

	r := chi.NewRouter()
	if opts.CheckoutLimit != nil {
		r.With(opts.CheckoutLimit).Post("/create-checkout-session", h.createCheckoutSession)
	} else {
		r.Post("/create-checkout-session", h.createCheckoutSession)
	}
	r.Post("/webhooks/stripe", h.handleStripeWebhook)
	r.Get("/credits", h.getCredits)
	r.Get("/plans", h.listPlans)
	return r
}

type checkoutRequest struct {
	PriceID       string `json:"priceId"`
	UserID        string `json:"userId"`
	CustomerEmail string `json:"customerEmail"`
}

func (h *router) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.opts.Checkout.CreateSession(r.Context(), billing.CheckoutParams{
		PriceID:       req.PriceID,
		UserID:        req.UserID,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		h.writeBillingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

func (h *router) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := h.opts.Reconciler.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.writeBillingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *router) getCredits(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "user_id must be a valid UUID")
		return
	}

	credits, err := h.opts.Store.GetCredits(r.Context(), userID)
	if err != nil {
		if errors.Is(err, billing.ErrUserNotFound) {
			// An unknown user simply has no credits yet.
			writeJSON(w, http.StatusOK, map[string]int64{"credits": 0})
			return
		}
		h.writeBillingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"credits": credits})
}

type planResponse struct {
	PriceID     string `json:"priceId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Credits     int64  `json:"credits"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval"`
}

func (h *router) listPlans(w http.ResponseWriter, r *http.Request) {
	var plans []planResponse
	if h.opts.Catalog != nil {
		for _, p := range h.opts.Catalog.Public() {
			plans = append(plans, planResponse{
				PriceID:     p.PriceID,
				Name:        p.Name,
				Description: p.Description,
				Credits:     p.Credits,
				Amount:      p.Price.Amount,
				Currency:    p.Price.Currency,
				Interval:    string(p.Interval),
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plans":          plans,
		"publishableKey": h.opts.PublishableKey,
	})
}

// writeBillingError maps domain sentinels onto HTTP statuses. Provider
// and store failures stay opaque to the caller.
func (h *router) writeBillingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billing.ErrMissingParameter):
		writeError(w, http.StatusBadRequest, "priceId, userId and customerEmail are required")
	case errors.Is(err, billing.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "invalid webhook signature")
	case errors.Is(err, billing.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "billing is not configured")
	case errors.Is(err, billing.ErrUserNotResolved):
		writeError(w, http.StatusInternalServerError, "could not resolve user for event")
	default:
		h.log.ErrorContext(r.Context(), "billing request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
