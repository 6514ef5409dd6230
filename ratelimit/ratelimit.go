// Package ratelimit throttles producer-facing enqueue calls, grounded on
// the teacher's infrastructure/ratelimit wrapper around
// golang.org/x/time/rate: a token-bucket limiter plus a burst ceiling.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
)

// Config controls the token bucket. A zero EventsPerSecond falls back to
// DefaultConfig's rate; a zero Burst becomes twice the rate.
type Config struct {
	EventsPerSecond float64
	Burst           int
}

// DefaultConfig returns a generous default: producers rarely need
// throttling on a local engine, but a misbehaving producer shouldn't be
// able to flood the queue faster than the dispatcher can possibly drain
// it.
func DefaultConfig() Config {
	return Config{EventsPerSecond: 100, Burst: 200}
}

// Limiter wraps a producer's EnqueueEvent call with a token bucket.
type Limiter struct {
	mu      sync.RWMutex
	limiter *rate.Limiter
	cfg     Config
}

// New creates a Limiter from cfg, filling in DefaultConfig's rate for a
// zero EventsPerSecond and twice the (resulting) rate for a zero Burst.
func New(cfg Config) *Limiter {
	if cfg.EventsPerSecond <= 0 {
		cfg.EventsPerSecond = DefaultConfig().EventsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.EventsPerSecond * 2)
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), cfg.Burst),
		cfg:     cfg,
	}
}

// Allow reports whether a producer call may proceed right now, without
// blocking. Callers that want back-pressure semantics consistent with
// BufferFull should treat a false return the same way: reject and ask
// the caller to retry later.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// AllowOrReject is a convenience wrapper returning BufferFull-shaped
// errors for producer-facing APIs that want a uniform error type.
func (l *Limiter) AllowOrReject() error {
	if !l.limiter.Allow() {
		return pkgerrors.New(pkgerrors.CodeBufferFull, "producer rate limit exceeded")
	}
	return nil
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Reset rebuilds the underlying limiter from the original config,
// clearing any accumulated burst debt.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter = rate.NewLimiter(rate.Limit(l.cfg.EventsPerSecond), l.cfg.Burst)
}
