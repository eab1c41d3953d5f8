package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/letterbox/internal/access/domain"
	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
)

// UpdateRecipientOptions carries the update-recipient flags. Nil pointers, an empty
// LetterFile, an empty Theme and a nil GalleryPhotos mean "unchanged".
type UpdateRecipientOptions struct {
	Name          *string
	Nickname      *string
	Description   *string
	MainPhoto     *string
	GalleryPhotos []string
	LetterFile    string
	Theme         string
	OrderIndex    *int
}

func (o UpdateRecipientOptions) toInput() (*domain.UpdateRecipientInput, error) {
	input := &domain.UpdateRecipientInput{
		Name:          o.Name,
		Nickname:      o.Nickname,
		Description:   o.Description,
		MainPhoto:     o.MainPhoto,
		GalleryPhotos: o.GalleryPhotos,
		OrderIndex:    o.OrderIndex,
	}

	if o.LetterFile != "" {
		letter, err := readLetterFile(o.LetterFile)
		if err != nil {
			return nil, err
		}
		input.LetterContent = &letter
	}

	theme, err := parseTheme(o.Theme)
	if err != nil {
		return nil, err
	}
	input.ThemeConfig = theme

	return input, nil
}

// RunUpdateRecipient changes the page content of a recipient. The slug, access key and
// published flag are managed by their own commands.
func RunUpdateRecipient(
	ctx context.Context,
	recipientUseCase accessUseCase.RecipientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	slug string,
	opts UpdateRecipientOptions,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	input, err := opts.toInput()
	if err != nil {
		return err
	}
	if input.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one content flag")
	}

	recipient, err := recipientUseCase.UpdateContent(ctx, slug, input)
	if err != nil {
		return fmt.Errorf("failed to update recipient: %w", err)
	}

	if format == formatJSON {
		if err := writeJSON(writer, map[string]any{
			"id":          recipient.ID.String(),
			"slug":        recipient.Slug,
			"name":        recipient.Name,
			"order_index": recipient.OrderIndex,
			"updated_at":  recipient.UpdatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Recipient %s updated\n", recipient.Slug)
	}

	logger.Info("recipient updated",
		slog.String("recipient_id", recipient.ID.String()),
		slog.String("slug", recipient.Slug),
	)
	return nil
}
