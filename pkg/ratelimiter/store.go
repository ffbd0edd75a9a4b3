package ratelimiter

import (
	"context"
	"time"
)

// Store is a rate limit storage backend.
type Store interface {
	// ConsumeTokens takes tokens from the bucket identified by key,
	// refilling it first according to config. A negative remaining count
	// means the request must be denied.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset drops the bucket state for key.
	Reset(ctx context.Context, key string) error
}
