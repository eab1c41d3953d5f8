package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/allisson/letterbox/internal/access/domain"
	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
	"github.com/allisson/letterbox/internal/clock"
)

// RunAccessStats prints dashboard numbers for the last days days. c may be nil.
func RunAccessStats(
	ctx context.Context,
	accessLogUseCase accessUseCase.AccessLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	c clock.Clock,
	days int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if days < 1 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}
	if c == nil {
		c = clock.RealClock{}
	}

	since := c.Now().Add(-time.Duration(days) * 24 * time.Hour)

	stats, err := accessLogUseCase.Stats(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to compute access stats: %w", err)
	}

	if format == formatJSON {
		if err := outputStatsJSON(writer, stats); err != nil {
			return err
		}
	} else {
		outputStatsText(writer, stats, days)
	}

	logger.Info("access stats computed",
		slog.Int("days", days),
		slog.Int64("successful_views", stats.SuccessfulViews),
		slog.Int64("failed_attempts", stats.FailedAttempts),
	)
	return nil
}

func outputStatsJSON(writer io.Writer, stats *domain.AccessStats) error {
	perRecipient := make([]map[string]any, 0, len(stats.ViewsPerRecipient))
	for _, views := range stats.ViewsPerRecipient {
		perRecipient = append(perRecipient, map[string]any{
			"recipient_id": views.RecipientID.String(),
			"slug":         views.Slug,
			"name":         views.Name,
			"views":        views.Views,
		})
	}

	return writeJSON(writer, map[string]any{
		"since":                stats.Since.UTC().Format(time.RFC3339),
		"total_recipients":     stats.TotalRecipients,
		"published_recipients": stats.PublishedRecipients,
		"successful_views":     stats.SuccessfulViews,
		"failed_attempts":      stats.FailedAttempts,
		"views_per_recipient":  perRecipient,
		"latest_attempts":      attemptViewsJSON(stats.LatestAttempts),
	})
}

func outputStatsText(writer io.Writer, stats *domain.AccessStats, days int) {
	_, _ = fmt.Fprintf(writer, "Access Statistics (last %d day(s))\n", days)
	_, _ = fmt.Fprintf(writer, "==================================\n\n")
	_, _ = fmt.Fprintf(writer, "Recipients:       %d (%d published)\n", stats.TotalRecipients, stats.PublishedRecipients)
	_, _ = fmt.Fprintf(writer, "Successful Views: %d\n", stats.SuccessfulViews)
	_, _ = fmt.Fprintf(writer, "Failed Attempts:  %d\n\n", stats.FailedAttempts)

	if len(stats.ViewsPerRecipient) > 0 {
		tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "RECIPIENT\tNAME\tVIEWS")
		for _, views := range stats.ViewsPerRecipient {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", views.Slug, views.Name, views.Views)
		}
		_ = tw.Flush()
		_, _ = fmt.Fprintln(writer)
	}

	_, _ = fmt.Fprintln(writer, "Latest Attempts:")
	outputAttemptViewsText(writer, stats.LatestAttempts)
}
