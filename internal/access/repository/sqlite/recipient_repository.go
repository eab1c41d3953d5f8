// Package sqlite implements the access-control repositories for SQLite. UUIDs are stored as
// TEXT and timestamps as fixed-width UTC strings so lexical order matches time order. The
// DSN must set _txlock=immediate: BEGIN IMMEDIATE takes the database write lock, which is
// what serializes rate limit updates in place of row locks.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/database"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

// timeLayout is the on-disk timestamp format. go-sqlite3 parses it back into time.Time for
// DATETIME columns.
const timeLayout = "2006-01-02 15:04:05.000000"

const recipientColumns = `id, slug, name, nickname, description, main_photo, gallery_photos,
	letter_content, theme_config, order_index, access_key_hash, is_published, created_at, updated_at`

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// SQLiteRecipientRepository implements Recipient persistence for SQLite.
type SQLiteRecipientRepository struct {
	db *sql.DB
}

func marshalRecipientJSON(recipient *domain.Recipient) (string, string, error) {
	gallery := recipient.GalleryPhotos
	if gallery == nil {
		gallery = []string{}
	}
	galleryJSON, err := json.Marshal(gallery)
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to marshal gallery photos")
	}

	theme := recipient.ThemeConfig
	if theme == nil {
		theme = map[string]any{}
	}
	themeJSON, err := json.Marshal(theme)
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to marshal theme config")
	}

	return string(galleryJSON), string(themeJSON), nil
}

// Create inserts a new Recipient. A duplicate slug yields ErrRecipientSlugTaken.
func (s *SQLiteRecipientRepository) Create(ctx context.Context, recipient *domain.Recipient) error {
	querier := database.GetTx(ctx, s.db)

	galleryJSON, themeJSON, err := marshalRecipientJSON(recipient)
	if err != nil {
		return err
	}

	query := `INSERT INTO recipients (` + recipientColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		recipient.ID.String(),
		recipient.Slug,
		recipient.Name,
		recipient.Nickname,
		recipient.Description,
		recipient.MainPhoto,
		galleryJSON,
		recipient.LetterContent,
		themeJSON,
		recipient.OrderIndex,
		recipient.AccessKeyHash,
		recipient.IsPublished,
		formatTime(recipient.CreatedAt),
		formatTime(recipient.UpdatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrRecipientSlugTaken
		}
		return apperrors.Wrap(err, "failed to create recipient")
	}

	return nil
}

// Update overwrites every mutable column of the recipient identified by ID.
func (s *SQLiteRecipientRepository) Update(ctx context.Context, recipient *domain.Recipient) error {
	querier := database.GetTx(ctx, s.db)

	galleryJSON, themeJSON, err := marshalRecipientJSON(recipient)
	if err != nil {
		return err
	}

	query := `UPDATE recipients
			  SET slug = ?,
				  name = ?,
				  nickname = ?,
				  description = ?,
				  main_photo = ?,
				  gallery_photos = ?,
				  letter_content = ?,
				  theme_config = ?,
				  order_index = ?,
				  access_key_hash = ?,
				  is_published = ?,
				  updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		recipient.Slug,
		recipient.Name,
		recipient.Nickname,
		recipient.Description,
		recipient.MainPhoto,
		galleryJSON,
		recipient.LetterContent,
		themeJSON,
		recipient.OrderIndex,
		recipient.AccessKeyHash,
		recipient.IsPublished,
		formatTime(recipient.UpdatedAt),
		recipient.ID.String(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrRecipientSlugTaken
		}
		return apperrors.Wrap(err, "failed to update recipient")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrRecipientNotFound
	}

	return nil
}

// GetBySlug retrieves a recipient by slug whether or not it is published.
func (s *SQLiteRecipientRepository) GetBySlug(ctx context.Context, slug string) (*domain.Recipient, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE slug = ?`

	var recipient domain.Recipient
	var galleryJSON, themeJSON string

	err := querier.QueryRowContext(ctx, query, slug).Scan(
		&recipient.ID,
		&recipient.Slug,
		&recipient.Name,
		&recipient.Nickname,
		&recipient.Description,
		&recipient.MainPhoto,
		&galleryJSON,
		&recipient.LetterContent,
		&themeJSON,
		&recipient.OrderIndex,
		&recipient.AccessKeyHash,
		&recipient.IsPublished,
		&recipient.CreatedAt,
		&recipient.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get recipient")
	}

	if err := json.Unmarshal([]byte(galleryJSON), &recipient.GalleryPhotos); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal gallery photos")
	}
	if err := json.Unmarshal([]byte(themeJSON), &recipient.ThemeConfig); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal theme config")
	}
	recipient.CreatedAt = recipient.CreatedAt.UTC()
	recipient.UpdatedAt = recipient.UpdatedAt.UTC()

	return &recipient, nil
}

// Delete removes the recipient with the given ID. Access attempts still referencing it make
// the delete fail with ErrRecipientHasAccessHistory.
func (s *SQLiteRecipientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, s.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, id.String())
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.ErrRecipientHasAccessHistory
		}
		return apperrors.Wrap(err, "failed to delete recipient")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return domain.ErrRecipientNotFound
	}

	return nil
}

// Count returns the total and published recipient counts.
func (s *SQLiteRecipientRepository) Count(ctx context.Context) (int64, int64, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT COUNT(*), COALESCE(SUM(is_published), 0) FROM recipients`

	var total, published int64
	if err := querier.QueryRowContext(ctx, query).Scan(&total, &published); err != nil {
		return 0, 0, apperrors.Wrap(err, "failed to count recipients")
	}

	return total, published, nil
}

// NewSQLiteRecipientRepository creates a new SQLite Recipient repository.
func NewSQLiteRecipientRepository(db *sql.DB) *SQLiteRecipientRepository {
	return &SQLiteRecipientRepository{db: db}
}
