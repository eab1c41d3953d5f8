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
)

// RunListAccessLogs prints the most recent access attempts, newest first.
func RunListAccessLogs(
	ctx context.Context,
	accessLogUseCase accessUseCase.AccessLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if limit < 1 || limit > accessUseCase.MaxListLimit {
		return fmt.Errorf("limit must be between 1 and %d, got: %d", accessUseCase.MaxListLimit, limit)
	}

	views, err := accessLogUseCase.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list access logs: %w", err)
	}

	if format == formatJSON {
		if err := writeJSON(writer, attemptViewsJSON(views)); err != nil {
			return err
		}
	} else {
		outputAttemptViewsText(writer, views)
	}

	logger.Info("access logs listed", slog.Int("count", len(views)))
	return nil
}

func attemptViewsJSON(views []*domain.AccessAttemptView) []map[string]any {
	result := make([]map[string]any, 0, len(views))
	for _, view := range views {
		result = append(result, map[string]any{
			"id":             view.ID.String(),
			"recipient_id":   view.RecipientID.String(),
			"recipient_slug": view.RecipientSlug,
			"recipient_name": view.RecipientName,
			"success":        view.Success,
			"failure_reason": view.FailureReason,
			"client_id":      view.ClientID,
			"client_agent":   view.ClientAgent,
			"request_id":     view.RequestID,
			"signed":         view.IsSigned(),
			"accessed_at":    view.AccessedAt.UTC().Format(time.RFC3339),
		})
	}
	return result
}

func outputAttemptViewsText(writer io.Writer, views []*domain.AccessAttemptView) {
	if len(views) == 0 {
		_, _ = fmt.Fprintln(writer, "No access attempts recorded")
		return
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ACCESSED AT\tRECIPIENT\tRESULT\tCLIENT")
	for _, view := range views {
		result := "granted"
		if !view.Success {
			result = "denied"
			if view.FailureReason != nil {
				result = *view.FailureReason
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			view.AccessedAt.UTC().Format("2006-01-02 15:04:05"),
			view.RecipientSlug,
			result,
			view.ClientID,
		)
	}
	_ = tw.Flush()
}
