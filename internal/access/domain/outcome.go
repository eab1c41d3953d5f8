package domain

import (
	"time"
)

// DenialReason explains why a verification was denied.
type DenialReason string

// Denial reasons returned by the verification flow.
const (
	DenialRateLimited DenialReason = "RATE_LIMITED"
	DenialNotFound    DenialReason = "NOT_FOUND"
	DenialInvalidKey  DenialReason = "INVALID_KEY"
)

// String returns the wire form of the reason.
func (r DenialReason) String() string {
	return string(r)
}

// VerifyAccessInput is one verification request.
type VerifyAccessInput struct {
	Slug        string
	AccessKey   string
	ClientID    string
	ClientAgent string
	RequestID   string
}

// Outcome is the result of a verification. It is implemented only by *Granted and *Denied.
type Outcome interface {
	isOutcome()
}

// Granted carries the session minted for a successful verification.
type Granted struct {
	Token     string
	ExpiresAt time.Time
	Recipient RecipientPublicFields
}

// Denied carries the reason of a refused verification. RetryAfter and BlockedUntil are only
// set for DenialRateLimited.
type Denied struct {
	Reason       DenialReason
	RetryAfter   time.Duration
	BlockedUntil *time.Time
}

func (*Granted) isOutcome() {}

func (*Denied) isOutcome() {}
