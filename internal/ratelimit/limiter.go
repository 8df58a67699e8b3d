// Package ratelimit provides client-side rate limiting for backend calls
// using a token bucket algorithm.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/docassist/docassist/internal/constants"
)

// WarnFunc receives a notice when a caller is about to wait a long time.
type WarnFunc func(wait time.Duration)

// RateLimiter implements a token bucket rate limiter.
// It allows bursts up to maxTokens, then refills at refillRate tokens/second.
type RateLimiter struct {
	tokens        float64
	maxTokens     float64
	refillRate    float64
	lastRefill    time.Time
	cooldownUntil time.Time
	lastWarnTime  time.Time
	warn          WarnFunc
	mu            sync.Mutex
}

// NewRateLimiter creates a new rate limiter with a full bucket.
//
// Parameters:
//   - tokensPerSecond: Rate at which tokens are added
//   - burstSize: Maximum tokens that can accumulate
func NewRateLimiter(tokensPerSecond float64, burstSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:     burstSize,
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// SetWarnFunc installs the long-wait notifier. Notices are throttled to
// one per constants.RateLimitWarningInterval.
func (rl *RateLimiter) SetWarnFunc(fn WarnFunc) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.warn = fn
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.TryAcquire() {
		return nil
	}

	rl.maybeWarn(rl.TimeUntilNextToken())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rl.TryAcquire() {
			return nil
		}

		timer := time.NewTimer(rl.TimeUntilNextToken())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (rl *RateLimiter) maybeWarn(wait time.Duration) {
	if wait <= constants.RateLimitWarningThreshold {
		return
	}
	rl.mu.Lock()
	fn := rl.warn
	due := time.Since(rl.lastWarnTime) > constants.RateLimitWarningInterval
	if due {
		rl.lastWarnTime = time.Now()
	}
	rl.mu.Unlock()

	if fn != nil && due {
		fn(wait)
	}
}

// refill must be called with rl.mu held.
func (rl *RateLimiter) refill(now time.Time) {
	rl.tokens += now.Sub(rl.lastRefill).Seconds() * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// TryAcquire takes one token without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Before(rl.cooldownUntil) {
		return false
	}
	rl.refill(now)

	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// TimeUntilNextToken reports how long until TryAcquire can succeed.
func (rl *RateLimiter) TimeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if remaining := rl.cooldownUntil.Sub(now); remaining > 0 {
		return remaining
	}
	rl.refill(now)

	tokensNeeded := 1.0 - rl.tokens
	if tokensNeeded <= 0 {
		return 0
	}
	if rl.refillRate <= 0 {
		return time.Second
	}
	return time.Duration(tokensNeeded / rl.refillRate * float64(time.Second))
}

// Drain empties the bucket. Called when the backend answers 429.
func (rl *RateLimiter) Drain() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = 0
	rl.lastRefill = time.Now()
}

// SetCooldown blocks all acquisitions for d. A shorter cooldown never
// replaces a longer one already in effect.
func (rl *RateLimiter) SetCooldown(d time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	until := time.Now().Add(d)
	if until.After(rl.cooldownUntil) {
		rl.cooldownUntil = until
	}
}

// CooldownRemaining returns the time left on the current cooldown.
func (rl *RateLimiter) CooldownRemaining() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if remaining := time.Until(rl.cooldownUntil); remaining > 0 {
		return remaining
	}
	return 0
}

// GetCurrentTokens returns the current number of tokens (for testing/debugging).
func (rl *RateLimiter) GetCurrentTokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tokens := rl.tokens + time.Since(rl.lastRefill).Seconds()*rl.refillRate
	if tokens > rl.maxTokens {
		tokens = rl.maxTokens
	}
	return tokens
}
