package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
)

// RunReorderRecipients assigns order_index 0..n-1 following the given slug order.
func RunReorderRecipients(
	ctx context.Context,
	recipientUseCase accessUseCase.RecipientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	slugs []string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	cleaned := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug = strings.TrimSpace(slug); slug != "" {
			cleaned = append(cleaned, slug)
		}
	}

	if err := recipientUseCase.Reorder(ctx, cleaned); err != nil {
		return fmt.Errorf("failed to reorder recipients: %w", err)
	}

	if format == formatJSON {
		if err := writeJSON(writer, map[string]any{"order": cleaned}); err != nil {
			return err
		}
	} else {
		for index, slug := range cleaned {
			_, _ = fmt.Fprintf(writer, "%d. %s\n", index, slug)
		}
	}

	logger.Info("recipients reordered", slog.Int("count", len(cleaned)))
	return nil
}
