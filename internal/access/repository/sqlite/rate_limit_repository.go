package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/database"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

const staleRateLimitCondition = `(last_attempt_at IS NULL OR last_attempt_at < ?)
			  AND (blocked_until IS NULL OR blocked_until < ?)`

// SQLiteRateLimitRepository implements RateLimitCounter persistence for SQLite.
type SQLiteRateLimitRepository struct {
	db *sql.DB
}

// AcquireForUpdate inserts a zero counter if none exists and reads it back. SQLite has no
// row locks; the write lock taken by the surrounding immediate transaction covers the
// read-modify-write.
func (s *SQLiteRateLimitRepository) AcquireForUpdate(
	ctx context.Context,
	identifier string,
) (*domain.RateLimitCounter, error) {
	querier := database.GetTx(ctx, s.db)

	_, err := querier.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO rate_limits (identifier, attempts) VALUES (?, 0)`,
		identifier,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to ensure rate limit counter")
	}

	query := `SELECT identifier, attempts, last_attempt_at, blocked_until
			  FROM rate_limits
			  WHERE identifier = ?`

	var counter domain.RateLimitCounter
	var lastAttemptAt sql.NullTime
	var blockedUntil sql.NullTime

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
	if blockedUntil.Valid {
		utc := blockedUntil.Time.UTC()
		counter.BlockedUntil = &utc
	}

	return &counter, nil
}

// Save writes the counter state back.
func (s *SQLiteRateLimitRepository) Save(ctx context.Context, counter *domain.RateLimitCounter) error {
	querier := database.GetTx(ctx, s.db)

	var lastAttemptAt any
	if !counter.LastAttemptAt.IsZero() {
		lastAttemptAt = formatTime(counter.LastAttemptAt)
	}

	query := `UPDATE rate_limits
			  SET attempts = ?, last_attempt_at = ?, blocked_until = ?
			  WHERE identifier = ?`

	_, err := querier.ExecContext(
		ctx,
		query,
		counter.Attempts,
		lastAttemptAt,
		formatNullableTime(counter.BlockedUntil),
		counter.Identifier,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to save rate limit counter")
	}

	return nil
}

// DeleteStale removes counters whose last attempt and lockout both ended before the given
// time. When dryRun is true it only counts them.
func (s *SQLiteRateLimitRepository) DeleteStale(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	querier := database.GetTx(ctx, s.db)
	cutoff := formatTime(before)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM rate_limits WHERE ` + staleRateLimitCondition
		if err := querier.QueryRowContext(ctx, query, cutoff, cutoff).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count stale rate limits")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM rate_limits WHERE `+staleRateLimitCondition, cutoff, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete stale rate limits")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}

	return count, nil
}

// NewSQLiteRateLimitRepository creates a new SQLite RateLimit repository.
func NewSQLiteRateLimitRepository(db *sql.DB) *SQLiteRateLimitRepository {
	return &SQLiteRateLimitRepository{db: db}
}
