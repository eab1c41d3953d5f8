package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/access/service"
	"github.com/allisson/letterbox/internal/clock"
	"github.com/allisson/letterbox/internal/database"
	apperrors "github.com/allisson/letterbox/internal/errors"
	appvalidation "github.com/allisson/letterbox/internal/validation"
)

// accessKeyRule bounds admin-chosen keys. Generated keys are always 32 characters.
var accessKeyRule = appvalidation.AccessKeyStrength{MinLength: 8, MaxLength: 256}

// recipientUseCase implements RecipientUseCase.
type recipientUseCase struct {
	txManager     database.TxManager
	recipientRepo RecipientRepository
	attemptRepo   AccessAttemptRepository
	secretService service.SecretService
	clock         clock.Clock
}

func validateCreateRecipientInput(input *domain.CreateRecipientInput) error {
	if !domain.IsValidSlug(input.Slug) {
		return domain.ErrInvalidSlug
	}

	err := validation.ValidateStruct(input,
		validation.Field(&input.Name, validation.Required, appvalidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&input.Nickname, validation.Length(0, 255)),
		validation.Field(&input.AccessKey, appvalidation.NoWhitespace, accessKeyRule),
		validation.Field(&input.OrderIndex, validation.Min(0)),
	)
	return appvalidation.WrapValidationError(err)
}

func validateUpdateRecipientInput(input *domain.UpdateRecipientInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name, validation.NilOrNotEmpty, appvalidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&input.Nickname, validation.Length(0, 255)),
		validation.Field(&input.OrderIndex, validation.Min(0)),
	)
	return appvalidation.WrapValidationError(err)
}

// resolveAccessKey returns the plaintext key to store, generating one when empty, and its hash.
func (r *recipientUseCase) resolveAccessKey(accessKey string) (string, string, error) {
	if accessKey == "" {
		return r.secretService.GenerateSecret()
	}

	hash, err := r.secretService.HashSecret(accessKey)
	if err != nil {
		return "", "", err
	}
	return accessKey, hash, nil
}

// Create validates and stores a new recipient. The plaintext key is only part of the output.
func (r *recipientUseCase) Create(
	ctx context.Context,
	input *domain.CreateRecipientInput,
) (*domain.CreateRecipientOutput, error) {
	if err := validateCreateRecipientInput(input); err != nil {
		return nil, err
	}

	plainKey, keyHash, err := r.resolveAccessKey(input.AccessKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash access key")
	}

	now := r.clock.Now().UTC().Truncate(time.Microsecond)
	gallery := input.GalleryPhotos
	if gallery == nil {
		gallery = []string{}
	}
	themeConfig := input.ThemeConfig
	if themeConfig == nil {
		themeConfig = map[string]any{}
	}

	recipient := &domain.Recipient{
		ID:            uuid.Must(uuid.NewV7()),
		Slug:          input.Slug,
		Name:          strings.TrimSpace(input.Name),
		Nickname:      input.Nickname,
		Description:   input.Description,
		MainPhoto:     input.MainPhoto,
		GalleryPhotos: gallery,
		LetterContent: input.LetterContent,
		ThemeConfig:   themeConfig,
		OrderIndex:    input.OrderIndex,
		AccessKeyHash: keyHash,
		IsPublished:   input.IsPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := r.recipientRepo.Create(ctx, recipient); err != nil {
		return nil, err
	}

	return &domain.CreateRecipientOutput{
		Recipient: recipient,
		AccessKey: plainKey,
	}, nil
}

// RotateAccessKey replaces the stored hash. Sessions issued under the old key are not revoked.
func (r *recipientUseCase) RotateAccessKey(ctx context.Context, slug string, accessKey string) (string, error) {
	if err := appvalidation.WrapValidationError(
		validation.Validate(accessKey, appvalidation.NoWhitespace, accessKeyRule),
	); err != nil {
		return "", err
	}

	var plainKey string
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		recipient, err := r.recipientRepo.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}

		key, hash, err := r.resolveAccessKey(accessKey)
		if err != nil {
			return apperrors.Wrap(err, "failed to hash access key")
		}

		recipient.AccessKeyHash = hash
		recipient.UpdatedAt = r.clock.Now().UTC().Truncate(time.Microsecond)
		if err := r.recipientRepo.Update(ctx, recipient); err != nil {
			return err
		}

		plainKey = key
		return nil
	})
	if err != nil {
		return "", err
	}

	return plainKey, nil
}

// SetPublished toggles the published flag.
func (r *recipientUseCase) SetPublished(
	ctx context.Context,
	slug string,
	published bool,
) (*domain.Recipient, error) {
	var recipient *domain.Recipient

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		found, err := r.recipientRepo.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}

		if found.IsPublished == published {
			recipient = found
			return nil
		}

		found.IsPublished = published
		found.UpdatedAt = r.clock.Now().UTC().Truncate(time.Microsecond)
		if err := r.recipientRepo.Update(ctx, found); err != nil {
			return err
		}

		recipient = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recipient, nil
}

// UpdateContent applies a partial content update. An empty update returns the stored
// recipient without writing.
func (r *recipientUseCase) UpdateContent(
	ctx context.Context,
	slug string,
	input *domain.UpdateRecipientInput,
) (*domain.Recipient, error) {
	if err := validateUpdateRecipientInput(input); err != nil {
		return nil, err
	}

	var recipient *domain.Recipient

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		found, err := r.recipientRepo.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}

		if input.IsEmpty() {
			recipient = found
			return nil
		}

		input.Apply(found)
		found.Name = strings.TrimSpace(found.Name)
		found.UpdatedAt = r.clock.Now().UTC().Truncate(time.Microsecond)
		if err := r.recipientRepo.Update(ctx, found); err != nil {
			return err
		}

		recipient = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recipient, nil
}

// Reorder rewrites order_index for the listed slugs in one transaction.
func (r *recipientUseCase) Reorder(ctx context.Context, slugs []string) error {
	if len(slugs) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "at least one slug is required")
	}

	seen := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		if _, ok := seen[slug]; ok {
			return apperrors.Wrapf(apperrors.ErrInvalidInput, "slug %q is listed more than once", slug)
		}
		seen[slug] = struct{}{}
	}

	return r.txManager.WithTx(ctx, func(ctx context.Context) error {
		now := r.clock.Now().UTC().Truncate(time.Microsecond)
		for index, slug := range slugs {
			recipient, err := r.recipientRepo.GetBySlug(ctx, slug)
			if err != nil {
				return err
			}
			if recipient.OrderIndex == index {
				continue
			}

			recipient.OrderIndex = index
			recipient.UpdatedAt = now
			if err := r.recipientRepo.Update(ctx, recipient); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a recipient. The access history is checked inside the transaction so the
// refusal does not depend on the driver enforcing foreign keys.
func (r *recipientUseCase) Delete(
	ctx context.Context,
	slug string,
	purgeAccessLogs bool,
) (*domain.DeleteRecipientOutput, error) {
	output := &domain.DeleteRecipientOutput{}

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		recipient, err := r.recipientRepo.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}

		count, err := r.attemptRepo.DeleteByRecipient(ctx, recipient.ID, !purgeAccessLogs)
		if err != nil {
			return err
		}
		if !purgeAccessLogs && count > 0 {
			return domain.ErrRecipientHasAccessHistory
		}

		if err := r.recipientRepo.Delete(ctx, recipient.ID); err != nil {
			return err
		}

		output.Recipient = recipient
		if purgeAccessLogs {
			output.PurgedAttempts = count
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// GetPage returns the teaser of a published recipient and, when claims unlock it, the
// protected fields as well.
func (r *recipientUseCase) GetPage(
	ctx context.Context,
	slug string,
	claims *domain.SessionClaims,
) (*domain.RecipientPage, error) {
	recipient, err := r.recipientRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !recipient.IsPublished {
		return nil, domain.ErrRecipientNotFound
	}

	page := &domain.RecipientPage{Teaser: recipient.Teaser()}
	if claims.Unlocks(recipient.ID) {
		protected := recipient.PublicFields()
		page.Unlocked = true
		page.Protected = &protected
	}

	return page, nil
}

// NewRecipientUseCase creates a new RecipientUseCase with the provided dependencies.
func NewRecipientUseCase(
	txManager database.TxManager,
	recipientRepo RecipientRepository,
	attemptRepo AccessAttemptRepository,
	secretService service.SecretService,
	c clock.Clock,
) RecipientUseCase {
	if c == nil {
		c = clock.RealClock{}
	}
	return &recipientUseCase{
		txManager:     txManager,
		recipientRepo: recipientRepo,
		attemptRepo:   attemptRepo,
		secretService: secretService,
		clock:         c,
	}
}
