package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
)

// RunCleanRateLimits removes rate limit counters that have been idle for a full window
// and are not locked.
func RunCleanRateLimits(
	ctx context.Context,
	rateLimitUseCase accessUseCase.RateLimitUseCase,
	logger *slog.Logger,
	writer io.Writer,
	dryRun bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	count, err := rateLimitUseCase.CleanStale(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean rate limits: %w", err)
	}

	if format == formatJSON {
		if err := writeJSON(writer, map[string]any{
			"count":   count,
			"dry_run": dryRun,
		}); err != nil {
			return err
		}
	} else if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d stale rate limit counter(s)\n", count)
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d stale rate limit counter(s)\n", count)
	}

	logger.Info("rate limit cleanup completed",
		slog.Int64("count", count),
		slog.Bool("dry_run", dryRun),
	)
	return nil
}
