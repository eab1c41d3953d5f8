package domain

import (
	"github.com/allisson/letterbox/internal/errors"
)

// Access-control errors.
var (
	// ErrRecipientNotFound indicates no recipient matches the given slug or ID.
	ErrRecipientNotFound = errors.Wrap(errors.ErrNotFound, "recipient not found")

	// ErrRecipientSlugTaken indicates another recipient already uses the slug.
	ErrRecipientSlugTaken = errors.Wrap(errors.ErrConflict, "recipient slug already exists")

	// ErrRecipientHasAccessHistory indicates a delete was refused because access attempts
	// still reference the recipient.
	ErrRecipientHasAccessHistory = errors.Wrap(errors.ErrConflict, "recipient has recorded access attempts")

	// ErrStorageUnavailable indicates the counter or audit store could not be used.
	// The verification flow fails closed on it.
	ErrStorageUnavailable = errors.Wrap(errors.ErrUnavailable, "access storage unavailable")

	// ErrInvalidSlug indicates a slug that cannot be used as a routing key.
	ErrInvalidSlug = errors.Wrap(errors.ErrInvalidInput, "invalid recipient slug")

	// ErrEmptyAccessKey indicates an empty access key was supplied to an admin operation.
	ErrEmptyAccessKey = errors.Wrap(errors.ErrInvalidInput, "access key must not be empty")

	// ErrSignatureInvalid indicates an access attempt row failed HMAC verification.
	ErrSignatureInvalid = errors.New("access attempt signature is invalid")

	// ErrSigningKeyMissing indicates audit verification was requested without a signing key.
	ErrSigningKeyMissing = errors.Wrap(errors.ErrInvalidInput, "access log signing key is not configured")
)
