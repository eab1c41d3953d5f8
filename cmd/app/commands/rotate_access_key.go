package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
)

// RunRotateAccessKey replaces the access key of a recipient and prints the new key once.
// Sessions issued with the previous key stay valid until they expire.
func RunRotateAccessKey(
	ctx context.Context,
	recipientUseCase accessUseCase.RecipientUseCase,
	logger *slog.Logger,
	writer io.Writer,
	slug string,
	accessKey string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("rotating access key", slog.String("slug", slug))

	newKey, err := recipientUseCase.RotateAccessKey(ctx, slug, accessKey)
	if err != nil {
		return fmt.Errorf("failed to rotate access key: %w", err)
	}

	if format == formatJSON {
		if err := writeJSON(writer, map[string]any{
			"slug":       slug,
			"access_key": newKey,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Access key rotated for %s\n", slug)
		_, _ = fmt.Fprintf(writer, "Access Key: %s\n\n", newKey)
		_, _ = fmt.Fprintf(writer, "Existing sessions remain valid until they expire.\n")
	}

	logger.Info("access key rotated", slog.String("slug", slug))
	return nil
}
