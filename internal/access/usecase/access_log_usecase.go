package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/access/service"
	"github.com/allisson/letterbox/internal/clock"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

const (
	// DefaultListLimit is used when ListRecent receives a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps ListRecent.
	MaxListLimit = 500
	// StatsLatestLimit is the number of attempts included in AccessStats.
	StatsLatestLimit = 10

	verifyBatchSize = 1000
)

// accessLogUseCase implements AccessLogUseCase.
type accessLogUseCase struct {
	attemptRepo   AccessAttemptRepository
	recipientRepo RecipientRepository
	signer        service.AccessSigner
	clock         clock.Clock
}

// Record appends one attempt with a UUIDv7 id and a UTC timestamp truncated to microseconds.
// Persistence failures are wrapped in ErrStorageUnavailable.
func (a *accessLogUseCase) Record(ctx context.Context, input *domain.RecordAccessInput) error {
	attempt := &domain.AccessAttempt{
		ID:          uuid.Must(uuid.NewV7()),
		RecipientID: input.RecipientID,
		Success:     input.Success,
		ClientID:    input.ClientID,
		ClientAgent: optionalString(input.ClientAgent),
		RequestID:   optionalString(input.RequestID),
		AccessedAt:  a.clock.Now().UTC().Truncate(time.Microsecond),
	}
	if !input.Success && input.FailureReason != nil {
		reason := input.FailureReason.String()
		attempt.FailureReason = &reason
	}

	if a.signer != nil {
		signature, err := a.signer.Sign(attempt)
		if err != nil {
			return apperrors.Wrap(err, "failed to sign access attempt")
		}
		attempt.Signature = signature
	}

	if err := a.attemptRepo.Create(ctx, attempt); err != nil {
		return fmt.Errorf("%w: failed to record access attempt: %w", domain.ErrStorageUnavailable, err)
	}

	return nil
}

// ListRecent clamps limit to [1, MaxListLimit], using DefaultListLimit for non-positive values.
func (a *accessLogUseCase) ListRecent(ctx context.Context, limit int) ([]*domain.AccessAttemptView, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	attempts, err := a.attemptRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access attempts")
	}
	return attempts, nil
}

// CountSince counts attempts at or after since.
func (a *accessLogUseCase) CountSince(
	ctx context.Context,
	since time.Time,
	outcome domain.OutcomeFilter,
) (int64, error) {
	if !outcome.IsValid() {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown outcome filter %q", outcome)
	}

	count, err := a.attemptRepo.CountSince(ctx, since.UTC(), outcome)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count access attempts")
	}
	return count, nil
}

// Stats runs the dashboard queries concurrently and fails if any of them fails.
func (a *accessLogUseCase) Stats(ctx context.Context, since time.Time) (*domain.AccessStats, error) {
	stats := &domain.AccessStats{Since: since.UTC()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, published, err := a.recipientRepo.Count(gctx)
		if err != nil {
			return apperrors.Wrap(err, "failed to count recipients")
		}
		stats.TotalRecipients = total
		stats.PublishedRecipients = published
		return nil
	})

	g.Go(func() error {
		count, err := a.attemptRepo.CountSince(gctx, stats.Since, domain.OutcomeFilterSuccess)
		if err != nil {
			return apperrors.Wrap(err, "failed to count successful views")
		}
		stats.SuccessfulViews = count
		return nil
	})

	g.Go(func() error {
		count, err := a.attemptRepo.CountSince(gctx, stats.Since, domain.OutcomeFilterFailure)
		if err != nil {
			return apperrors.Wrap(err, "failed to count failed attempts")
		}
		stats.FailedAttempts = count
		return nil
	})

	g.Go(func() error {
		views, err := a.attemptRepo.ViewsPerRecipient(gctx, stats.Since)
		if err != nil {
			return apperrors.Wrap(err, "failed to count views per recipient")
		}
		stats.ViewsPerRecipient = views
		return nil
	})

	g.Go(func() error {
		latest, err := a.attemptRepo.ListRecent(gctx, StatsLatestLimit)
		if err != nil {
			return apperrors.Wrap(err, "failed to list latest access attempts")
		}
		stats.LatestAttempts = latest
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteOlderThan removes attempts older than days * 24h from now. Zero days removes every
// attempt recorded before now.
func (a *accessLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "days must be zero or positive")
	}

	olderThan := a.clock.Now().UTC().AddDate(0, 0, -days)

	count, err := a.attemptRepo.DeleteOlderThan(ctx, olderThan, dryRun)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete access attempts")
	}
	return count, nil
}

// VerifyBatch re-signs every attempt in [start, end] and compares it with the stored
// signature. Unsigned rows are counted but not treated as failures.
func (a *accessLogUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*domain.VerificationReport, error) {
	if a.signer == nil {
		return nil, domain.ErrSigningKeyMissing
	}

	report := &domain.VerificationReport{
		InvalidIDs: make([]uuid.UUID, 0),
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
	}

	for offset := 0; ; offset += verifyBatchSize {
		attempts, err := a.attemptRepo.ListBetween(ctx, report.StartTime, report.EndTime, offset, verifyBatchSize)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list access attempts for verification")
		}

		for _, attempt := range attempts {
			report.TotalChecked++
			if !attempt.IsSigned() {
				report.UnsignedCount++
				continue
			}

			report.SignedCount++
			if err := a.signer.Verify(attempt); err != nil {
				report.InvalidCount++
				report.InvalidIDs = append(report.InvalidIDs, attempt.ID)
				continue
			}
			report.ValidCount++
		}

		if len(attempts) < verifyBatchSize {
			break
		}
	}

	return report, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// NewAccessLogUseCase creates a new AccessLogUseCase. signer may be nil, in which case
// attempts are stored unsigned and VerifyBatch returns ErrSigningKeyMissing.
func NewAccessLogUseCase(
	attemptRepo AccessAttemptRepository,
	recipientRepo RecipientRepository,
	signer service.AccessSigner,
	c clock.Clock,
) AccessLogUseCase {
	if c == nil {
		c = clock.RealClock{}
	}
	return &accessLogUseCase{
		attemptRepo:   attemptRepo,
		recipientRepo: recipientRepo,
		signer:        signer,
		clock:         c,
	}
}
