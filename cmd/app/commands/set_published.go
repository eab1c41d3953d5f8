package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
)

// RunSetPublished publishes or unpublishes a recipient.
func RunSetPublished(
	ctx context.Context,
	recipientUseCase accessUseCase.RecipientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	slug string,
	published bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	recipient, err := recipientUseCase.SetPublished(ctx, slug, published)
	if err != nil {
		return fmt.Errorf("failed to update recipient: %w", err)
	}

	if format == formatJSON {
		if err := writeJSON(writer, map[string]any{
			"id":           recipient.ID.String(),
			"slug":         recipient.Slug,
			"is_published": recipient.IsPublished,
		}); err != nil {
			return err
		}
	} else {
		state := "unpublished"
		if recipient.IsPublished {
			state = "published"
		}
		_, _ = fmt.Fprintf(writer, "Recipient %s is now %s\n", recipient.Slug, state)
	}

	logger.Info("recipient publish state changed",
		slog.String("slug", recipient.Slug),
		slog.Bool("is_published", recipient.IsPublished),
	)
	return nil
}
