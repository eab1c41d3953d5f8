package mysql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/letterbox/internal/access/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func binaryID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

func sampleRecipient() *domain.Recipient {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return &domain.Recipient{
		ID:            uuid.Must(uuid.NewV7()),
		Slug:          "ana",
		Name:          "Ana",
		GalleryPhotos: []string{"a.jpg"},
		LetterContent: "Dear Ana",
		ThemeConfig:   map[string]any{"accent": "rose"},
		AccessKeyHash: "$argon2id$hash",
		IsPublished:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var recipientColumnNames = []string{
	"id", "slug", "name", "nickname", "description", "main_photo", "gallery_photos",
	"letter_content", "theme_config", "order_index", "access_key_hash", "is_published",
	"created_at", "updated_at",
}

func TestMySQLRecipientRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)
		recipient := sampleRecipient()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recipients")).
			WithArgs(
				binaryID(t, recipient.ID), "ana", "Ana", "", "", "", `["a.jpg"]`,
				"Dear Ana", `{"accent":"rose"}`, 0, "$argon2id$hash", true,
				recipient.CreatedAt, recipient.UpdatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, recipient))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_SlugTaken", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recipients")).
			WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"})

		assert.ErrorIs(t, repo.Create(ctx, sampleRecipient()), domain.ErrRecipientSlugTaken)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recipients")).
			WillReturnError(errors.New("connection refused"))

		err := repo.Create(ctx, sampleRecipient())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create recipient")
	})
}

func TestMySQLRecipientRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)
		recipient := sampleRecipient()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE recipients")).
			WithArgs(
				"ana", "Ana", "", "", "", `["a.jpg"]`, "Dear Ana", `{"accent":"rose"}`, 0,
				"$argon2id$hash", true, recipient.UpdatedAt, binaryID(t, recipient.ID),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, recipient))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE recipients")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Update(ctx, sampleRecipient()), domain.ErrRecipientNotFound)
	})
}

func TestMySQLRecipientRepository_GetBySlug(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)
		expected := sampleRecipient()

		rows := sqlmock.NewRows(recipientColumnNames).AddRow(
			binaryID(t, expected.ID), "ana", "Ana", "", "", "", []byte(`["a.jpg"]`),
			"Dear Ana", []byte(`{"accent":"rose"}`), 0, "$argon2id$hash", true,
			expected.CreatedAt, expected.UpdatedAt,
		)
		mock.ExpectQuery(regexp.QuoteMeta("FROM recipients WHERE slug = ?")).
			WithArgs("ana").
			WillReturnRows(rows)

		recipient, err := repo.GetBySlug(ctx, "ana")
		require.NoError(t, err)
		assert.Equal(t, expected.ID, recipient.ID)
		assert.Equal(t, []string{"a.jpg"}, recipient.GalleryPhotos)
		assert.Equal(t, "rose", recipient.ThemeConfig["accent"])
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM recipients WHERE slug = ?")).
			WillReturnError(sql.ErrNoRows)

		recipient, err := repo.GetBySlug(ctx, "ghost")
		assert.Nil(t, recipient)
		assert.ErrorIs(t, err, domain.ErrRecipientNotFound)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)
		expected := sampleRecipient()

		rows := sqlmock.NewRows(recipientColumnNames).AddRow(
			[]byte{1, 2, 3}, "ana", "Ana", "", "", "", []byte(`[]`),
			"", []byte(`{}`), 0, "hash", true, expected.CreatedAt, expected.UpdatedAt,
		)
		mock.ExpectQuery(regexp.QuoteMeta("FROM recipients WHERE slug = ?")).WillReturnRows(rows)

		recipient, err := repo.GetBySlug(ctx, "ana")
		assert.Nil(t, recipient)
		assert.Error(t, err)
	})
}

func TestMySQLRecipientRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLRecipientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SUM(CASE WHEN is_published THEN 1 ELSE 0 END)")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "published"}).AddRow(int64(2), int64(1)))

	total, published, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), published)
}

func TestMySQLRecipientRepository_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipients WHERE id = ?")).
			WithArgs(binaryID(t, id)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipients")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, id), domain.ErrRecipientNotFound)
	})

	t.Run("Error_ReferencedByAttempts", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRecipientRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipients")).
			WillReturnError(&mysqldriver.MySQLError{Number: 1451})

		assert.ErrorIs(t, repo.Delete(ctx, id), domain.ErrRecipientHasAccessHistory)
	})
}
