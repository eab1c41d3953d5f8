// Package mysql implements the access-control repositories for MySQL. UUIDs are stored as
// BINARY(16) and the DSN must set parseTime=true.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/database"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

const recipientColumns = `id, slug, name, nickname, description, main_photo, gallery_photos,
	letter_content, theme_config, order_index, access_key_hash, is_published, created_at, updated_at`

// MySQLRecipientRepository implements Recipient persistence for MySQL.
type MySQLRecipientRepository struct {
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
func (m *MySQLRecipientRepository) Create(ctx context.Context, recipient *domain.Recipient) error {
	querier := database.GetTx(ctx, m.db)

	id, err := recipient.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal recipient id")
	}

	galleryJSON, themeJSON, err := marshalRecipientJSON(recipient)
	if err != nil {
		return err
	}

	query := `INSERT INTO recipients (` + recipientColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
		recipient.CreatedAt,
		recipient.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrRecipientSlugTaken
		}
		return apperrors.Wrap(err, "failed to create recipient")
	}

	return nil
}

// Update overwrites every mutable column of the recipient identified by ID. MySQL reports
// matched rows only when values change, and updated_at always changes, so zero affected rows
// means the ID is unknown.
func (m *MySQLRecipientRepository) Update(ctx context.Context, recipient *domain.Recipient) error {
	querier := database.GetTx(ctx, m.db)

	id, err := recipient.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal recipient id")
	}

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
		recipient.UpdatedAt,
		id,
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
func (m *MySQLRecipientRepository) GetBySlug(ctx context.Context, slug string) (*domain.Recipient, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE slug = ?`

	var recipient domain.Recipient
	var idBytes, galleryJSON, themeJSON []byte

	err := querier.QueryRowContext(ctx, query, slug).Scan(
		&idBytes,
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

	if err := recipient.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal recipient id")
	}
	if err := json.Unmarshal(galleryJSON, &recipient.GalleryPhotos); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal gallery photos")
	}
	if err := json.Unmarshal(themeJSON, &recipient.ThemeConfig); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal theme config")
	}

	return &recipient, nil
}

// Delete removes the recipient with the given ID. Access attempts still referencing it make
// the delete fail with ErrRecipientHasAccessHistory.
func (m *MySQLRecipientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal recipient id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, idBytes)
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
func (m *MySQLRecipientRepository) Count(ctx context.Context) (int64, int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_published THEN 1 ELSE 0 END), 0) FROM recipients`

	var total, published int64
	if err := querier.QueryRowContext(ctx, query).Scan(&total, &published); err != nil {
		return 0, 0, apperrors.Wrap(err, "failed to count recipients")
	}

	return total, published, nil
}

// NewMySQLRecipientRepository creates a new MySQL Recipient repository.
func NewMySQLRecipientRepository(db *sql.DB) *MySQLRecipientRepository {
	return &MySQLRecipientRepository{db: db}
}
