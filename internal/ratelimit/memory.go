package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// sweepInterval bounds how often expired entries are collected.
const sweepInterval = time.Minute

type memoryEntry struct {
	count int
	reset time.Time
}

// MemoryLimiter implements a fixed-window in-memory rate limiter with lazy
// expiry. It is the fallback backend when no distributed store is configured:
// state is process-local and lost on restart, and windows are fixed rather
// than sliding, so a burst straddling a window boundary can see up to twice
// the budget. Both limitations are accepted for a zero-dependency fallback.
type MemoryLimiter struct {
	mu        sync.Mutex
	counters  map[string]*memoryEntry
	lastSweep time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Allow checks whether the request fits the current window for key.
// The counter keeps incrementing past the limit so overshoot stays observable;
// the window is never reset early by denied requests.
func (l *MemoryLimiter) Allow(_ context.Context, key string, cfg Config, now time.Time) (Result, error) {
	if cfg.MaxRequests <= 0 || key == "" {
		return Result{Allowed: true, Limit: cfg.MaxRequests}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)

	entry := l.counters[key]
	if entry == nil || !now.Before(entry.reset) {
		entry = &memoryEntry{count: 1, reset: now.Add(cfg.Window)}
		l.counters[key] = entry
		return Result{
			Allowed:   true,
			Limit:     cfg.MaxRequests,
			Remaining: cfg.MaxRequests - 1,
			Reset:     entry.reset,
		}, nil
	}

	entry.count++
	if entry.count > cfg.MaxRequests {
		return Result{
			Allowed:    false,
			Limit:      cfg.MaxRequests,
			Remaining:  0,
			Reset:      entry.reset,
			RetryAfter: retryAfterSeconds(entry.reset, now),
		}, nil
	}
	return Result{
		Allowed:   true,
		Limit:     cfg.MaxRequests,
		Remaining: cfg.MaxRequests - entry.count,
		Reset:     entry.reset,
	}, nil
}

// sweepLocked drops expired entries at most once per sweepInterval. Lazy on
// purpose: no background task, the next caller pays for the cleanup.
func (l *MemoryLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for key, entry := range l.counters {
		if !now.Before(entry.reset) {
			delete(l.counters, key)
		}
	}
}

// retryAfterSeconds converts the distance to a window reset into whole
// seconds, rounded up, never below one.
func retryAfterSeconds(reset, now time.Time) int {
	secs := int(math.Ceil(reset.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
