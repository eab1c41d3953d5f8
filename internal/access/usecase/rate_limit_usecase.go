package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/clock"
	"github.com/allisson/letterbox/internal/database"
)

// rateLimitUseCase implements RateLimitUseCase over durable counter rows.
type rateLimitUseCase struct {
	txManager database.TxManager
	repo      RateLimitRepository
	policy    domain.RateLimitPolicy
	clock     clock.Clock
}

// Consume runs the read-modify-write of one counter inside a single transaction holding the
// row lock, so concurrent attempts from the same identifier are serialized. A blocked counter
// is not written.
func (r *rateLimitUseCase) Consume(ctx context.Context, identifier string) (*domain.RateLimitDecision, error) {
	var decision *domain.RateLimitDecision

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		counter, err := r.repo.AcquireForUpdate(ctx, identifier)
		if err != nil {
			return err
		}

		now := r.clock.Now().UTC().Truncate(time.Microsecond)
		result, changed := counter.Consume(now, r.policy)
		if changed {
			if err := r.repo.Save(ctx, counter); err != nil {
				return err
			}
		}

		decision = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: rate limit check failed: %w", domain.ErrStorageUnavailable, err)
	}

	return decision, nil
}

// CleanStale removes counters that have been idle for longer than one window.
func (r *rateLimitUseCase) CleanStale(ctx context.Context, dryRun bool) (int64, error) {
	before := r.clock.Now().UTC().Add(-r.policy.Window)

	count, err := r.repo.DeleteStale(ctx, before, dryRun)
	if err != nil {
		return 0, fmt.Errorf("failed to clean stale rate limits: %w", err)
	}

	return count, nil
}

// NewRateLimitUseCase creates a new RateLimitUseCase with the provided dependencies.
func NewRateLimitUseCase(
	txManager database.TxManager,
	repo RateLimitRepository,
	policy domain.RateLimitPolicy,
	c clock.Clock,
) RateLimitUseCase {
	if c == nil {
		c = clock.RealClock{}
	}
	return &rateLimitUseCase{
		txManager: txManager,
		repo:      repo,
		policy:    policy,
		clock:     c,
	}
}
