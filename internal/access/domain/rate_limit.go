package domain

import (
	"time"
)

// RateLimitPolicy is the sliding window configuration of the verification limiter.
// Window is both the attempt window and the lockout duration.
type RateLimitPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimitCounter is the durable per-identifier attempt counter. A zero LastAttemptAt
// means no prior attempt was recorded.
type RateLimitCounter struct {
	Identifier    string
	Attempts      int
	LastAttemptAt time.Time
	BlockedUntil  *time.Time
}

// RateLimitDecision is the result of consuming one attempt.
type RateLimitDecision struct {
	Allowed      bool
	Attempts     int
	Remaining    int
	BlockedUntil *time.Time
}

// RetryAfter returns how long the caller must wait before the lockout ends, or zero.
func (d *RateLimitDecision) RetryAfter(now time.Time) time.Duration {
	if d.BlockedUntil == nil || !d.BlockedUntil.After(now) {
		return 0
	}
	return d.BlockedUntil.Sub(now)
}

// IsBlocked reports whether the counter is inside an active lockout at now.
func (c *RateLimitCounter) IsBlocked(now time.Time) bool {
	return c.BlockedUntil != nil && c.BlockedUntil.After(now)
}

// Consume applies one attempt at now. It mutates the counter in place and reports whether
// the counter changed and must be persisted. A blocked counter is left untouched.
func (c *RateLimitCounter) Consume(now time.Time, policy RateLimitPolicy) (*RateLimitDecision, bool) {
	if c.IsBlocked(now) {
		blockedUntil := *c.BlockedUntil
		return &RateLimitDecision{
			Allowed:      false,
			Attempts:     c.Attempts,
			Remaining:    0,
			BlockedUntil: &blockedUntil,
		}, false
	}

	withinWindow := !c.LastAttemptAt.IsZero() && now.Sub(c.LastAttemptAt) < policy.Window
	attempts := 1
	if withinWindow {
		attempts = c.Attempts + 1
	}

	if attempts > policy.MaxAttempts {
		blockedUntil := now.Add(policy.Window)
		c.Attempts = policy.MaxAttempts
		c.LastAttemptAt = now
		c.BlockedUntil = &blockedUntil

		decisionBlockedUntil := blockedUntil
		return &RateLimitDecision{
			Allowed:      false,
			Attempts:     attempts,
			Remaining:    0,
			BlockedUntil: &decisionBlockedUntil,
		}, true
	}

	c.Attempts = attempts
	c.LastAttemptAt = now
	c.BlockedUntil = nil

	return &RateLimitDecision{
		Allowed:   true,
		Attempts:  attempts,
		Remaining: max(policy.MaxAttempts-attempts, 0),
	}, true
}
