package ratelimit

import (
	"context"
	"time"
)

// Config describes the budget for one endpoint class.
type Config struct {
	MaxRequests int
	Window      time.Duration
	Namespace   string
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
	// RetryAfter is the suggested wait in seconds; meaningful only when denied.
	RetryAfter int
}

// Limiter provides rate limit checks for one backend.
type Limiter interface {
	Allow(ctx context.Context, key string, cfg Config, now time.Time) (Result, error)
}
