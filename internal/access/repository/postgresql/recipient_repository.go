// Package postgresql implements the access-control repositories for PostgreSQL.
package postgresql

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

// PostgreSQLRecipientRepository implements Recipient persistence for PostgreSQL.
// Uses native UUID and JSONB types with transaction support via database.GetTx().
type PostgreSQLRecipientRepository struct {
	db *sql.DB
}

func marshalRecipientJSON(recipient *domain.Recipient) ([]byte, []byte, error) {
	gallery := recipient.GalleryPhotos
	if gallery == nil {
		gallery = []string{}
	}
	galleryJSON, err := json.Marshal(gallery)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal gallery photos")
	}

	theme := recipient.ThemeConfig
	if theme == nil {
		theme = map[string]any{}
	}
	themeJSON, err := json.Marshal(theme)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal theme config")
	}

	return galleryJSON, themeJSON, nil
}

// Create inserts a new Recipient. A duplicate slug yields ErrRecipientSlugTaken.
func (p *PostgreSQLRecipientRepository) Create(ctx context.Context, recipient *domain.Recipient) error {
	querier := database.GetTx(ctx, p.db)

	galleryJSON, themeJSON, err := marshalRecipientJSON(recipient)
	if err != nil {
		return err
	}

	query := `INSERT INTO recipients (` + recipientColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = querier.ExecContext(
		ctx,
		query,
		recipient.ID,
		recipient.Slug,
		recipient.Name,
		recipient.Nickname,
		recipient.Description,
		recipient.MainPhoto,
		string(galleryJSON),
		recipient.LetterContent,
		string(themeJSON),
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

// Update overwrites every mutable column of the recipient identified by ID.
func (p *PostgreSQLRecipientRepository) Update(ctx context.Context, recipient *domain.Recipient) error {
	querier := database.GetTx(ctx, p.db)

	galleryJSON, themeJSON, err := marshalRecipientJSON(recipient)
	if err != nil {
		return err
	}

	query := `UPDATE recipients
			  SET slug = $1,
				  name = $2,
				  nickname = $3,
				  description = $4,
				  main_photo = $5,
				  gallery_photos = $6,
				  letter_content = $7,
				  theme_config = $8,
				  order_index = $9,
				  access_key_hash = $10,
				  is_published = $11,
				  updated_at = $12
			  WHERE id = $13`

	result, err := querier.ExecContext(
		ctx,
		query,
		recipient.Slug,
		recipient.Name,
		recipient.Nickname,
		recipient.Description,
		recipient.MainPhoto,
		string(galleryJSON),
		recipient.LetterContent,
		string(themeJSON),
		recipient.OrderIndex,
		recipient.AccessKeyHash,
		recipient.IsPublished,
		recipient.UpdatedAt,
		recipient.ID,
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
func (p *PostgreSQLRecipientRepository) GetBySlug(ctx context.Context, slug string) (*domain.Recipient, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + recipientColumns + ` FROM recipients WHERE slug = $1`

	var recipient domain.Recipient
	var galleryJSON, themeJSON []byte

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
func (p *PostgreSQLRecipientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM recipients WHERE id = $1`, id)
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

// Count returns the total and published recipient counts in one query.
func (p *PostgreSQLRecipientRepository) Count(ctx context.Context) (int64, int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_published) FROM recipients`

	var total, published int64
	if err := querier.QueryRowContext(ctx, query).Scan(&total, &published); err != nil {
		return 0, 0, apperrors.Wrap(err, "failed to count recipients")
	}

	return total, published, nil
}

// NewPostgreSQLRecipientRepository creates a new PostgreSQL Recipient repository.
func NewPostgreSQLRecipientRepository(db *sql.DB) *PostgreSQLRecipientRepository {
	return &PostgreSQLRecipientRepository{db: db}
}
