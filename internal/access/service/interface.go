// Package service provides the technical services of the access-control subsystem: access key
// hashing, session token signing, access attempt signing and KMS unwrapping of configured keys.
package service

import (
	"github.com/google/uuid"

	"github.com/allisson/letterbox/internal/access/domain"
)

// SecretService hashes and compares recipient access keys.
type SecretService interface {
	// GenerateSecret creates a random URL-safe access key. Returns both the plain text key
	// (shown once to the operator) and its hash (stored on the recipient).
	GenerateSecret() (plainSecret string, hashedSecret string, err error)

	// HashSecret hashes a plain text access key with the configured adaptive algorithm.
	HashSecret(plainSecret string) (hashedSecret string, err error)

	// CompareSecret reports whether plainSecret matches hashedSecret. Any malformed hash
	// yields false.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// SessionService mints and validates stateless recipient session tokens.
type SessionService interface {
	// Issue signs a token bound to the recipient ID and slug.
	Issue(recipientID uuid.UUID, slug string) (*domain.SessionToken, error)

	// Validate returns the claims of token when its signature, expiry, issuer and slug are all
	// valid for expectedSlug. Any failure yields nil.
	Validate(token string, expectedSlug string) *domain.SessionClaims
}

// AccessSigner signs access attempt rows for tamper detection.
type AccessSigner interface {
	// Sign returns the HMAC-SHA256 signature of the attempt.
	Sign(attempt *domain.AccessAttempt) ([]byte, error)

	// Verify returns domain.ErrSignatureInvalid when the attempt signature does not match.
	Verify(attempt *domain.AccessAttempt) error
}
