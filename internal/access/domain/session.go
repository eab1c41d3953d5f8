package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionToken is a freshly minted signed session token. ExpiresAt equals the token's
// exp claim.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

// SessionClaims are the validated claims of a session token.
type SessionClaims struct {
	RecipientID uuid.UUID
	Slug        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Unlocks reports whether the claims grant access to the recipient with the given ID.
func (c *SessionClaims) Unlocks(recipientID uuid.UUID) bool {
	return c != nil && c.RecipientID == recipientID
}
