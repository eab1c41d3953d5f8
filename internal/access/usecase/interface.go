// Package usecase defines and implements the business logic of the access-control subsystem:
// the durable rate limiter, the access attempt audit log, the verification flow and the
// recipient administration used by the CLI and the page endpoint.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/letterbox/internal/access/domain"
)

// RecipientRepository defines persistence operations for recipients.
// Implementations must support transaction-aware operations via context propagation.
type RecipientRepository interface {
	// Create stores a new recipient. Returns ErrRecipientSlugTaken on a duplicate slug.
	Create(ctx context.Context, recipient *domain.Recipient) error

	// Update overwrites the mutable fields of an existing recipient, the key hash included.
	// Returns ErrRecipientNotFound if no row matches the ID.
	Update(ctx context.Context, recipient *domain.Recipient) error

	// GetBySlug retrieves a recipient regardless of its published flag.
	// Returns ErrRecipientNotFound if not found.
	GetBySlug(ctx context.Context, slug string) (*domain.Recipient, error)

	// Delete removes a recipient. Returns ErrRecipientNotFound if no row matches the ID and
	// ErrRecipientHasAccessHistory while access attempts still reference it.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of recipients and how many of them are published.
	Count(ctx context.Context) (total int64, published int64, err error)
}

// RateLimitRepository defines persistence operations for per-identifier attempt counters.
type RateLimitRepository interface {
	// AcquireForUpdate makes sure a counter row exists for identifier and row-locks it for
	// the surrounding transaction. A freshly created row has zero attempts.
	AcquireForUpdate(ctx context.Context, identifier string) (*domain.RateLimitCounter, error)

	// Save persists the counter state.
	Save(ctx context.Context, counter *domain.RateLimitCounter) error

	// DeleteStale removes counters whose last attempt and lockout both ended before the
	// given time. When dryRun is true rows are only counted.
	DeleteStale(ctx context.Context, before time.Time, dryRun bool) (int64, error)
}

// AccessAttemptRepository defines persistence operations for the access attempt audit log.
type AccessAttemptRepository interface {
	// Create appends one attempt.
	Create(ctx context.Context, attempt *domain.AccessAttempt) error

	// ListRecent returns up to limit attempts joined with their recipient, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.AccessAttemptView, error)

	// ListBetween returns attempts with start <= accessed_at <= end, oldest first.
	ListBetween(ctx context.Context, start, end time.Time, offset, limit int) ([]*domain.AccessAttempt, error)

	// CountSince counts attempts at or after since matching the outcome filter.
	CountSince(ctx context.Context, since time.Time, outcome domain.OutcomeFilter) (int64, error)

	// ViewsPerRecipient counts successful attempts at or after since for every recipient,
	// zero included, ordered by order_index then name.
	ViewsPerRecipient(ctx context.Context, since time.Time) ([]*domain.RecipientViews, error)

	// DeleteOlderThan removes attempts recorded before olderThan. When dryRun is true rows
	// are only counted.
	DeleteOlderThan(ctx context.Context, olderThan time.Time, dryRun bool) (int64, error)

	// DeleteByRecipient removes every attempt of one recipient. When dryRun is true rows are
	// only counted.
	DeleteByRecipient(ctx context.Context, recipientID uuid.UUID, dryRun bool) (int64, error)
}

// RateLimitUseCase is the durable sliding-window limiter keyed by client identifier.
type RateLimitUseCase interface {
	// Consume records one attempt for identifier and decides whether it may proceed.
	// Storage failures are returned wrapped in ErrStorageUnavailable and must be treated
	// as a denial by the caller.
	Consume(ctx context.Context, identifier string) (*domain.RateLimitDecision, error)

	// CleanStale removes counters older than one window. When dryRun is true rows are only
	// counted.
	CleanStale(ctx context.Context, dryRun bool) (int64, error)
}

// AccessLogUseCase records and reads the access attempt audit trail.
type AccessLogUseCase interface {
	// Record appends one attempt synchronously. The row is signed when a signing key is set.
	Record(ctx context.Context, input *domain.RecordAccessInput) error

	// ListRecent returns up to limit attempts, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.AccessAttemptView, error)

	// CountSince counts attempts at or after since matching outcome.
	CountSince(ctx context.Context, since time.Time, outcome domain.OutcomeFilter) (int64, error)

	// Stats aggregates dashboard numbers since the given time.
	Stats(ctx context.Context, since time.Time) (*domain.AccessStats, error)

	// DeleteOlderThan removes attempts older than the given number of days.
	DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error)

	// VerifyBatch checks the signatures of every attempt recorded in [start, end].
	VerifyBatch(ctx context.Context, start, end time.Time) (*domain.VerificationReport, error)
}

// VerificationUseCase is the entry point that decides whether a visitor may see a recipient.
type VerificationUseCase interface {
	// VerifyAccess runs rate check, lookup, secret comparison, session issuance and audit
	// recording. Denials are returned as *domain.Denied; only infrastructure faults are errors.
	VerifyAccess(ctx context.Context, input *domain.VerifyAccessInput) (domain.Outcome, error)

	// ValidateSession returns the claims of token for expectedSlug, or nil.
	ValidateSession(token string, expectedSlug string) *domain.SessionClaims
}

// RecipientUseCase covers recipient administration and the page projection.
type RecipientUseCase interface {
	// Create stores a new recipient. When input.AccessKey is empty a random key is generated.
	// The plaintext key is returned once in the output.
	Create(ctx context.Context, input *domain.CreateRecipientInput) (*domain.CreateRecipientOutput, error)

	// RotateAccessKey replaces the key hash of the recipient. When accessKey is empty a random
	// key is generated. Returns the new plaintext key. Existing sessions stay valid until expiry.
	RotateAccessKey(ctx context.Context, slug string, accessKey string) (string, error)

	// SetPublished toggles whether the recipient can be verified and viewed.
	SetPublished(ctx context.Context, slug string, published bool) (*domain.Recipient, error)

	// UpdateContent changes the page content of a recipient. Nil input fields are kept.
	UpdateContent(ctx context.Context, slug string, input *domain.UpdateRecipientInput) (*domain.Recipient, error)

	// Reorder sets order_index to the position of each slug in slugs. Unlisted recipients
	// keep their index.
	Reorder(ctx context.Context, slugs []string) error

	// Delete removes a recipient. A recipient with recorded access attempts is refused with
	// ErrRecipientHasAccessHistory unless purgeAccessLogs is set, in which case its attempts
	// are deleted in the same transaction.
	Delete(ctx context.Context, slug string, purgeAccessLogs bool) (*domain.DeleteRecipientOutput, error)

	// GetPage returns the page projection for slug. Protected content is included only when
	// claims were issued for this recipient. Unpublished recipients yield ErrRecipientNotFound.
	GetPage(ctx context.Context, slug string, claims *domain.SessionClaims) (*domain.RecipientPage, error)
}
