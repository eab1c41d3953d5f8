package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/database"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

const staleRateLimitCondition = `(last_attempt_at IS NULL OR last_attempt_at < $1)
			  AND (blocked_until IS NULL OR blocked_until < $1)`

// PostgreSQLRateLimitRepository implements RateLimitCounter persistence for PostgreSQL.
type PostgreSQLRateLimitRepository struct {
	db *sql.DB
}

// AcquireForUpdate inserts a zero counter if none exists and then locks the row with
// SELECT ... FOR UPDATE. Must run inside a transaction for the lock to be held.
func (p *PostgreSQLRateLimitRepository) AcquireForUpdate(
	ctx context.Context,
	identifier string,
) (*domain.RateLimitCounter, error) {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(
		ctx,
		`INSERT INTO rate_limits (identifier, attempts) VALUES ($1, 0) ON CONFLICT (identifier) DO NOTHING`,
		identifier,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to ensure rate limit counter")
	}

	query := `SELECT identifier, attempts, last_attempt_at, blocked_until
			  FROM rate_limits
			  WHERE identifier = $1
			  FOR UPDATE`

	var counter domain.RateLimitCounter
	var lastAttemptAt sql.NullTime
	var blockedUntil *time.Time

	err = querier.QueryRowContext(ctx, query, identifier).Scan(
		&counter.Identifier,
		&counter.Attempts,
		&lastAttemptAt,
		&blockedUntil,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to lock rate limit counter")
	}

	if lastAttemptAt.Valid {
		counter.LastAttemptAt = lastAttemptAt.Time.UTC()
	}
	if blockedUntil != nil {
		utc := blockedUntil.UTC()
		counter.BlockedUntil = &utc
	}

	return &counter, nil
}

// Save writes the counter state back.
func (p *PostgreSQLRateLimitRepository) Save(ctx context.Context, counter *domain.RateLimitCounter) error {
	querier := database.GetTx(ctx, p.db)

	var lastAttemptAt sql.NullTime
	if !counter.LastAttemptAt.IsZero() {
		lastAttemptAt = sql.NullTime{Time: counter.LastAttemptAt, Valid: true}
	}

	query := `UPDATE rate_limits
			  SET attempts = $1, last_attempt_at = $2, blocked_until = $3
			  WHERE identifier = $4`

	_, err := querier.ExecContext(
		ctx,
		query,
		counter.Attempts,
		lastAttemptAt,
		counter.BlockedUntil,
		counter.Identifier,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to save rate limit counter")
	}

	return nil
}

// DeleteStale removes counters whose last attempt and lockout both ended before the given
// time. When dryRun is true it only counts them.
func (p *PostgreSQLRateLimitRepository) DeleteStale(
	ctx context.Context,
	before time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM rate_limits WHERE ` + staleRateLimitCondition
		if err := querier.QueryRowContext(ctx, query, before).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count stale rate limits")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM rate_limits WHERE `+staleRateLimitCondition, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete stale rate limits")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}

	return count, nil
}

// NewPostgreSQLRateLimitRepository creates a new PostgreSQL RateLimit repository.
func NewPostgreSQLRateLimitRepository(db *sql.DB) *PostgreSQLRateLimitRepository {
	return &PostgreSQLRateLimitRepository{db: db}
}
