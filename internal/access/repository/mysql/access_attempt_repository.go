package mysql

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

// MySQLAccessAttemptRepository implements AccessAttempt persistence for MySQL.
type MySQLAccessAttemptRepository struct {
	db *sql.DB
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// attemptRow holds the raw BINARY(16) ids of a scanned attempt.
type attemptRow struct {
	attempt     domain.AccessAttempt
	id          []byte
	recipientID []byte
}

func (r *attemptRow) dest() []any {
	return []any{
		&r.id,
		&r.recipientID,
		&r.attempt.Success,
		&r.attempt.FailureReason,
		&r.attempt.ClientID,
		&r.attempt.ClientAgent,
		&r.attempt.RequestID,
		&r.attempt.Signature,
		&r.attempt.AccessedAt,
	}
}

func (r *attemptRow) decode() (*domain.AccessAttempt, error) {
	if err := r.attempt.ID.UnmarshalBinary(r.id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal access attempt id")
	}
	if err := r.attempt.RecipientID.UnmarshalBinary(r.recipientID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal recipient id")
	}
	r.attempt.AccessedAt = r.attempt.AccessedAt.UTC()
	return &r.attempt, nil
}

// Create appends one access attempt. A nil signature is stored as NULL.
func (m *MySQLAccessAttemptRepository) Create(ctx context.Context, attempt *domain.AccessAttempt) error {
	querier := database.GetTx(ctx, m.db)

	id, err := attempt.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal access attempt id")
	}
	recipientID, err := attempt.RecipientID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal recipient id")
	}

	query := `INSERT INTO access_attempts
			  (id, recipient_id, success, failure_reason, client_id, client_agent, request_id, signature, accessed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		recipientID,
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

// ListRecent returns the newest attempts joined with their recipient.
func (m *MySQLAccessAttemptRepository) ListRecent(
	ctx context.Context,
	limit int,
) ([]*domain.AccessAttemptView, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + attemptColumns + `, r.name, r.slug
			  FROM access_attempts a
			  JOIN recipients r ON r.id = a.recipient_id
			  ORDER BY a.accessed_at DESC, a.id DESC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access attempts")
	}
	defer func() {
		_ = rows.Close()
	}()

	views := make([]*domain.AccessAttemptView, 0)
	for rows.Next() {
		var row attemptRow
		var name, slug string

		if err := rows.Scan(append(row.dest(), &name, &slug)...); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access attempt")
		}

		attempt, err := row.decode()
		if err != nil {
			return nil, err
		}
		views = append(views, &domain.AccessAttemptView{
			AccessAttempt: *attempt,
			RecipientName: name,
			RecipientSlug: slug,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate access attempts")
	}

	return views, nil
}

// ListBetween returns attempts with start <= accessed_at <= end, oldest first.
func (m *MySQLAccessAttemptRepository) ListBetween(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*domain.AccessAttempt, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + attemptColumns + `
			  FROM access_attempts a
			  WHERE a.accessed_at >= ? AND a.accessed_at <= ?
			  ORDER BY a.accessed_at ASC, a.id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list access attempts")
	}
	defer func() {
		_ = rows.Close()
	}()

	attempts := make([]*domain.AccessAttempt, 0)
	for rows.Next() {
		var row attemptRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan access attempt")
		}

		attempt, err := row.decode()
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate access attempts")
	}

	return attempts, nil
}

// CountSince counts attempts at or after since matching outcome.
func (m *MySQLAccessAttemptRepository) CountSince(
	ctx context.Context,
	since time.Time,
	outcome domain.OutcomeFilter,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM access_attempts WHERE accessed_at >= ?`
	args := []any{since}

	switch outcome {
	case domain.OutcomeFilterSuccess:
		query += ` AND success = ?`
		args = append(args, true)
	case domain.OutcomeFilterFailure:
		query += ` AND success = ?`
		args = append(args, false)
	}

	var count int64
	if err := querier.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count access attempts")
	}

	return count, nil
}

// ViewsPerRecipient counts successful attempts since the given time for every recipient.
func (m *MySQLAccessAttemptRepository) ViewsPerRecipient(
	ctx context.Context,
	since time.Time,
) ([]*domain.RecipientViews, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT r.id, r.name, r.slug, COUNT(a.id)
			  FROM recipients r
			  LEFT JOIN access_attempts a
			    ON a.recipient_id = r.id AND a.success = TRUE AND a.accessed_at >= ?
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
		var idBytes []byte
		if err := rows.Scan(&idBytes, &views.Name, &views.Slug, &views.Views); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan recipient views")
		}

		id, err := uuid.FromBytes(idBytes)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal recipient id")
		}
		views.RecipientID = id
		result = append(result, &views)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate recipient views")
	}

	return result, nil
}

// DeleteOlderThan removes attempts recorded before olderThan. When dryRun is true it
// only counts them.
func (m *MySQLAccessAttemptRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM access_attempts WHERE accessed_at < ?`
		if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count access attempts")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM access_attempts WHERE accessed_at < ?`, olderThan)
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
func (m *MySQLAccessAttemptRepository) DeleteByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	dryRun bool,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := recipientID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal recipient id")
	}

	if dryRun {
		var count int64
		query := `SELECT COUNT(*) FROM access_attempts WHERE recipient_id = ?`
		if err := querier.QueryRowContext(ctx, query, idBytes).Scan(&count); err != nil {
			return 0, apperrors.Wrap(err, "failed to count access attempts")
		}
		return count, nil
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM access_attempts WHERE recipient_id = ?`, idBytes)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete access attempts")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}

	return count, nil
}

// NewMySQLAccessAttemptRepository creates a new MySQL AccessAttempt repository.
func NewMySQLAccessAttemptRepository(db *sql.DB) *MySQLAccessAttemptRepository {
	return &MySQLAccessAttemptRepository{db: db}
}
