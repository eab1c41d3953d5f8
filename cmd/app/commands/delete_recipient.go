package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/letterbox/internal/access/domain"
	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
)

// RunDeleteRecipient removes a recipient. Recipients with recorded access attempts are kept
// unless purgeAccessLogs is set, which erases their attempts in the same transaction.
func RunDeleteRecipient(
	ctx context.Context,
	recipientUseCase accessUseCase.RecipientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	slug string,
	purgeAccessLogs bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("deleting recipient",
		slog.String("slug", slug),
		slog.Bool("purge_access_logs", purgeAccessLogs),
	)

	output, err := recipientUseCase.Delete(ctx, slug, purgeAccessLogs)
	if err != nil {
		if errors.Is(err, domain.ErrRecipientHasAccessHistory) {
			return fmt.Errorf(
				"failed to delete recipient: %w (unpublish it with set-published or pass --purge-access-logs)",
				err,
			)
		}
		return fmt.Errorf("failed to delete recipient: %w", err)
	}

	if format == formatJSON {
		if err := writeJSON(writer, map[string]any{
			"id":              output.Recipient.ID.String(),
			"slug":            output.Recipient.Slug,
			"purged_attempts": output.PurgedAttempts,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Recipient %s deleted\n", output.Recipient.Slug)
		if purgeAccessLogs {
			_, _ = fmt.Fprintf(writer, "Purged %d access log(s)\n", output.PurgedAttempts)
		}
	}

	logger.Info("recipient deleted",
		slog.String("recipient_id", output.Recipient.ID.String()),
		slog.String("slug", output.Recipient.Slug),
		slog.Int64("purged_attempts", output.PurgedAttempts),
	)
	return nil
}
