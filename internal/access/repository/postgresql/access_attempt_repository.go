package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/database"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

const attemptColumns = `a.id, a.recipient_id, a.success, a.failure_reason, a.client_id, a.client_agent,
	a.request_id, a.signature, a.accessed_at`

// PostgreSQLAccessAttemptRepository implements AccessAttempt persistence for PostgreSQL.
type PostgreSQLAccessAttemptRepository struct {
	db *sql.DB
}

// Create appends one access attempt. A nil signature is stored as NULL.
func (p *PostgreSQLAccessAttemptRepository) Create(ctx context.Context, attempt *domain.AccessAttempt) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO access_attempts
			  (id, recipient_id, success, failure_reason, client_id, client_agent, request_id, signature, accessed_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		attempt.ID,
		attempt.RecipientID,
		attempt.Success,
		attempt.FailureReason,
		attempt.ClientID,
		attempt.ClientAgent,
		attempt.RequestID,
		nullableBytes(attempt.Signature),
		attempt.AccessedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create access attempt")
	}

	return nil
}

// nullableBytes maps an empty signature to NULL.
func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func scanAttempt(dest []any, attempt *domain.AccessAttempt) []any {
	return append(dest,
		&attempt.ID,
		&attempt.RecipientID,
		&attempt.Success,
		&attempt.FailureReason,
		&attempt.ClientID,
		&attempt.ClientAgent,
		&attempt.RequestID,
		&attempt.Signature,
		&attempt.AccessedAt,
	)
}

// ListRecent returns the newest attempts joined with their recipient.
func (p *PostgreSQLAccessAttemptRepository) ListRecent(
	ctx context.Context,
	limit int,
) ([]*domain.AccessAttemptView, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + attemptColumns + `, r.name, r.slug
			  FROM access_attempts a
			  JOIN recipients r ON r.id = a.recipient_id
			  ORDER BY a.accessed_at DESC, a.id DESC
			  LIMIT $1`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access attempts")
	}
	defer func() {
		_ = rows.Close()
	}()

	views := make([]*domain.AccessAttemptView, 0)
	for rows.Next() {
		var view domain.AccessAttemptView
		dest := scanAttempt(make([]any, 0, 11), &view.AccessAttempt)
		dest = append(dest, &view.RecipientName, &view.RecipientSlug)

		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access attempt")
		}
		view.AccessedAt = view.AccessedAt.UTC()
		views = append(views, &view)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate access attempts")
	}

	return views, nil
}

// ListBetween returns attempts with start <= accessed_at <= end, oldest first.
func (p *PostgreSQLAccessAttemptRepository) ListBetween(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*domain.AccessAttempt, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + attemptColumns + `
			  FROM access_attempts a
			  WHERE a.accessed_at >= $1 AND a.accessed_at <= $2
			  ORDER BY a.accessed_at ASC, a.id ASC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access attempts")
	}
	defer func() {
		_ = rows.Close()
	}()

	attempts := make([]*domain.AccessAttempt, 0)
	for rows.Next() {
		var attempt domain.AccessAttempt
		if err := rows.Scan(scanAttempt(make([]any, 0, 9), &attempt)...); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access attempt")
		}
		attempt.AccessedAt = attempt.AccessedAt.UTC()
		attempts = append(attempts, &attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate access attempts")
	}

	return attempts, nil
}

// CountSince counts attempts at or after since matching outcome.
func (p *PostgreSQLAccessAttemptRepository) CountSince(
	ctx context.Context,
	since time.Time,
	outcome domain.OutcomeFilter,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM access_attempts WHERE accessed_at >= $1`
	args := []any{since}

	switch outcome {
	case domain.OutcomeFilterSuccess:
		query += ` AND success = $2`
		args = append(args, true)
	case domain.OutcomeFilterFailure:
		query += ` AND success = $2`
		args = append(args, false)
	}

	var count int64
	if err := querier.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count access attempts")
	}

	return count, nil
}

// ViewsPerRecipient counts successful attempts since the given time for every recipient.
func (p *PostgreSQLAccessAttemptRepository) ViewsPerRecipient(
	ctx context.Context,
	since time.Time,
) ([]*domain.RecipientViews, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT r.id, r.name, r.slug, COUNT(a.id)
			  FROM recipients r
			  LEFT JOIN access_attempts a
			    ON a.recipient_id = r.id AND a.success = TRUE AND a.accessed_at >= $1
			  GROUP BY r.id, r.name, r.slug, r.order_index
			  ORDER BY r.order_index ASC, r.name ASC`

	rows, err := querier.QueryContext(ctx, query, since)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count views per recipient")
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*domain.RecipientViews, 0)
	for rows.Next() {
		var views domain.RecipientViews
		if err := rows.Scan(&views.RecipientID, &views.Name, &views.Slug, &views.Views); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan recipient views")
		}
		result = append(result, &views)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate recipient views")
	}

	return result, nil
}

// DeleteOlderThan removes attempts recorded before olderThan. When dryRun is true it
// only counts them.
func (p *PostgreSQLAccessAttemptRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM access_attempts WHERE accessed_at < $1`
		if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count access attempts")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM access_attempts WHERE accessed_at < $1`, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete access attempts")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}

	return count, nil
}

// DeleteByRecipient removes every attempt recorded for recipientID. When dryRun is true it
// only counts them.
func (p *PostgreSQLAccessAttemptRepository) DeleteByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM access_attempts WHERE recipient_id = $1`
		if err := querier.QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count access attempts")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM access_attempts WHERE recipient_id = $1`, recipientID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete access attempts")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}

	return count, nil
}

// NewPostgreSQLAccessAttemptRepository creates a new PostgreSQL AccessAttempt repository.
func NewPostgreSQLAccessAttemptRepository(db *sql.DB) *PostgreSQLAccessAttemptRepository {
	return &PostgreSQLAccessAttemptRepository{db: db}
}
