package billing

import "errors"

var (
	// Caller input problems (map to HTTP 400).
	ErrMissingParameter = errors.New("missing required checkout parameter")
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// Deployment problems (map to HTTP 500).
	ErrNotConfigured = errors.New("payment provider is not configured")

	// Upstream and persistence failures (map to HTTP 500).
	ErrProviderFailure = errors.New("payment provider request failed")
	ErrStoreFailure    = errors.New("user store operation failed")

	// ErrUserNotResolved means a subscription event could not be mapped to
	// any user. Fatal for that event; the provider redelivers.
	ErrUserNotResolved = errors.New("cannot resolve user for subscription event")

	// ErrUserNotFound is the store's not-found sentinel.
	ErrUserNotFound = errors.New("billing user not found")

	// Plan catalog problems.
	ErrInvalidPlanConfiguration = errors.New("invalid plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load plan catalog")
)
