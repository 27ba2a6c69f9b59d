package dispatch

import (
	"context"

	"multigofer/internal/config"
)

// Limiter bounds the number of in-flight outbound RPC calls. One
// process-wide limiter is shared by default: many engines may hammer
// the same node endpoint and must be throttled together.
type Limiter struct {
	sem chan struct{}
}

// NewLimiter creates a limiter admitting at most n concurrent calls
func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = config.DefaultMaxInFlight
	}
	return &Limiter{sem: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or the context is cancelled
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire
func (l *Limiter) Release() {
	<-l.sem
}

var defaultLimiter = NewLimiter(config.DefaultMaxInFlight)

// DefaultLimiter returns the process-wide limiter
func DefaultLimiter() *Limiter {
	return defaultLimiter
}

// SetDefaultLimit replaces the process-wide limiter. Call once at
// startup, before any requests are in flight.
func SetDefaultLimit(n int) {
	defaultLimiter = NewLimiter(n)
}
