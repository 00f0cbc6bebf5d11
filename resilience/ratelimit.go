package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// Rate is the sustained refill rate in tokens per second.
	// Default: 100.
	Rate float64

	// Burst is the bucket capacity. Default: 10.
	Burst int

	// WaitOnLimit makes Execute block for a token instead of failing.
	WaitOnLimit bool

	// MaxWait bounds how long Wait blocks for a token. Default: 1s.
	MaxWait time.Duration
}

// RateLimiter is a token bucket. The bucket starts full, refills at
// Rate tokens per second, and never holds more than Burst.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter builds a limiter, applying defaults for unset fields.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}

	return &RateLimiter{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: time.Now(),
	}
}

// Allow reports whether one token is available, consuming it if so.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN reports whether n tokens are available, consuming them if so.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}
	return false
}

// Wait blocks until a token is available, MaxWait passes, or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN blocks until n tokens are available. It waits at most MaxWait
// and returns ErrRateLimitExceeded if the tokens still have not
// accumulated by then.
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if rl.AllowN(n) {
		return nil
	}

	rl.mu.Lock()
	shortfall := float64(n) - rl.tokens
	wait := time.Duration(shortfall / rl.config.Rate * float64(time.Second))
	rl.mu.Unlock()

	if wait > rl.config.MaxWait {
		wait = rl.config.MaxWait
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		if rl.AllowN(n) {
			return nil
		}
		return ErrRateLimitExceeded
	}
}

// Execute runs op when the limiter admits it, blocking first when
// WaitOnLimit is set.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}

	return op(ctx)
}

// refillLocked credits tokens for the time since the last refill.
// rl.mu must be held.
func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	rl.lastRefill = now

	rl.tokens += elapsed.Seconds() * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// Tokens returns the number of tokens currently available.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Reset refills the bucket to Burst.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = float64(rl.config.Burst)
	rl.lastRefill = time.Now()
}
