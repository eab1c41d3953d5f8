package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/letterbox/internal/access/domain"
	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
	"github.com/allisson/letterbox/internal/access/usecase/mocks"
	"github.com/allisson/letterbox/internal/clock"
)

func sampleViews() []*domain.AccessAttemptView {
	reason := "invalid_key"
	accessedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*domain.AccessAttemptView{
		{
			AccessAttempt: domain.AccessAttempt{
				ID:          uuid.Must(uuid.NewV7()),
				RecipientID: uuid.Must(uuid.NewV7()),
				Success:     true,
				ClientID:    "203.0.113.7",
				Signature:   make([]byte, 32),
				AccessedAt:  accessedAt,
			},
			RecipientName: "Ana",
			RecipientSlug: "ana",
		},
		{
			AccessAttempt: domain.AccessAttempt{
				ID:            uuid.Must(uuid.NewV7()),
				RecipientID:   uuid.Must(uuid.NewV7()),
				FailureReason: &reason,
				ClientID:      "198.51.100.2",
				AccessedAt:    accessedAt.Add(-time.Minute),
			},
			RecipientName: "Bia",
			RecipientSlug: "bia",
		},
	}
}

func TestRunListAccessLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("ListRecent", ctx, 50).Return(sampleViews(), nil)

		var out bytes.Buffer
		err := RunListAccessLogs(ctx, mockUseCase, logger, &out, 50, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "ACCESSED AT")
		require.Contains(t, out.String(), "granted")
		require.Contains(t, out.String(), "invalid_key")
		require.Contains(t, out.String(), "2026-03-01 12:00:00")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("ListRecent", ctx, 10).Return(sampleViews(), nil)

		var out bytes.Buffer
		err := RunListAccessLogs(ctx, mockUseCase, logger, &out, 10, "json")
		require.NoError(t, err)

		var result []map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Len(t, result, 2)
		require.Equal(t, "ana", result[0]["recipient_slug"])
		require.Equal(t, true, result[0]["signed"])
		require.Equal(t, false, result[1]["signed"])
		require.Equal(t, "invalid_key", result[1]["failure_reason"])
	})

	t.Run("empty", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("ListRecent", ctx, 50).Return([]*domain.AccessAttemptView{}, nil)

		var out bytes.Buffer
		err := RunListAccessLogs(ctx, mockUseCase, logger, &out, 50, "text")
		require.NoError(t, err)
		require.Equal(t, "No access attempts recorded\n", out.String())
	})

	t.Run("invalid-limit", func(t *testing.T) {
		err := RunListAccessLogs(ctx, nil, logger, &bytes.Buffer{}, 0, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "limit must be between")

		err = RunListAccessLogs(ctx, nil, logger, &bytes.Buffer{}, accessUseCase.MaxListLimit+1, "text")
		require.Error(t, err)
	})
}

func TestRunAccessStats(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	now := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	fixed := clock.Func(func() time.Time { return now })
	since := now.Add(-7 * 24 * time.Hour)

	stats := &domain.AccessStats{
		Since:               since,
		TotalRecipients:     3,
		PublishedRecipients: 2,
		SuccessfulViews:     5,
		FailedAttempts:      9,
		ViewsPerRecipient: []*domain.RecipientViews{
			{RecipientID: uuid.Must(uuid.NewV7()), Name: "Ana", Slug: "ana", Views: 4},
			{RecipientID: uuid.Must(uuid.NewV7()), Name: "Bia", Slug: "bia", Views: 1},
		},
		LatestAttempts: sampleViews(),
	}

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("Stats", ctx, since).Return(stats, nil)

		var out bytes.Buffer
		err := RunAccessStats(ctx, mockUseCase, logger, &out, fixed, 7, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Access Statistics (last 7 day(s))")
		require.Contains(t, out.String(), "Recipients:       3 (2 published)")
		require.Contains(t, out.String(), "Failed Attempts:  9")
		require.Contains(t, out.String(), "Latest Attempts:")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("Stats", ctx, since).Return(stats, nil)

		var out bytes.Buffer
		err := RunAccessStats(ctx, mockUseCase, logger, &out, fixed, 7, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, float64(5), result["successful_views"])
		require.Len(t, result["views_per_recipient"], 2)
		require.Len(t, result["latest_attempts"], 2)
	})

	t.Run("nil-clock", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("Stats", ctx, mock.AnythingOfType("time.Time")).Return(stats, nil)

		err := RunAccessStats(ctx, mockUseCase, logger, &bytes.Buffer{}, nil, 1, "text")
		require.NoError(t, err)
	})

	t.Run("invalid-days", func(t *testing.T) {
		err := RunAccessStats(ctx, nil, logger, &bytes.Buffer{}, fixed, 0, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "days must be a positive number")
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("Stats", ctx, since).Return(nil, domain.ErrStorageUnavailable)

		err := RunAccessStats(ctx, mockUseCase, logger, &bytes.Buffer{}, fixed, 7, "text")
		require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}

func TestRunCleanAccessLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("DeleteOlderThan", ctx, 30, false).Return(int64(12), nil)

		var out bytes.Buffer
		err := RunCleanAccessLogs(ctx, mockUseCase, logger, &out, 30, false, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Successfully deleted 12 access log(s) older than 30 day(s)")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("dry-run-text", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("DeleteOlderThan", ctx, 30, true).Return(int64(12), nil)

		var out bytes.Buffer
		err := RunCleanAccessLogs(ctx, mockUseCase, logger, &out, 30, true, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Dry-run mode: Would delete 12 access log(s)")
	})

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("DeleteOlderThan", ctx, 0, false).Return(int64(3), nil)

		var out bytes.Buffer
		err := RunCleanAccessLogs(ctx, mockUseCase, logger, &out, 0, false, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, float64(3), result["count"])
		require.Equal(t, false, result["dry_run"])
	})

	t.Run("negative-days", func(t *testing.T) {
		err := RunCleanAccessLogs(ctx, nil, logger, &bytes.Buffer{}, -1, false, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "days must be a positive number")
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("DeleteOlderThan", ctx, 30, false).Return(int64(0), errors.New("db down"))

		err := RunCleanAccessLogs(ctx, mockUseCase, logger, &bytes.Buffer{}, 30, false, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to delete access logs")
	})
}

func TestRunCleanRateLimits(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &mocks.MockRateLimitUseCase{}
		mockUseCase.On("CleanStale", ctx, false).Return(int64(4), nil)

		var out bytes.Buffer
		err := RunCleanRateLimits(ctx, mockUseCase, logger, &out, false, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Successfully deleted 4 stale rate limit counter(s)")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("dry-run-json", func(t *testing.T) {
		mockUseCase := &mocks.MockRateLimitUseCase{}
		mockUseCase.On("CleanStale", ctx, true).Return(int64(2), nil)

		var out bytes.Buffer
		err := RunCleanRateLimits(ctx, mockUseCase, logger, &out, true, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, float64(2), result["count"])
		require.Equal(t, true, result["dry_run"])
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &mocks.MockRateLimitUseCase{}
		mockUseCase.On("CleanStale", ctx, false).Return(int64(0), errors.New("db down"))

		err := RunCleanRateLimits(ctx, mockUseCase, logger, &bytes.Buffer{}, false, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to clean rate limits")
	})
}

func TestRunVerifyAccessLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	startDate := "2026-01-01"
	endDate := "2026-01-02"

	report := &domain.VerificationReport{
		TotalChecked: 10,
		SignedCount:  10,
		ValidCount:   10,
	}

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAccessLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Access Log Integrity Verification")
		require.Contains(t, out.String(), "Status: PASSED")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAccessLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, float64(10), result["total_checked"])
		require.Equal(t, true, result["passed"])
	})

	t.Run("invalid-dates", func(t *testing.T) {
		err := RunVerifyAccessLogs(ctx, nil, logger, nil, "invalid", endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid start date")

		err = RunVerifyAccessLogs(ctx, nil, logger, nil, endDate, startDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "end date must be after start date")
	})

	t.Run("integrity-failure", func(t *testing.T) {
		mockUseCase := &mocks.MockAccessLogUseCase{}
		failureReport := &domain.VerificationReport{
			TotalChecked: 10,
			SignedCount:  10,
			ValidCount:   8,
			InvalidCount: 2,
			InvalidIDs:   []uuid.UUID{uuid.New(), uuid.New()},
		}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(failureReport, nil)

		var out bytes.Buffer
		err := RunVerifyAccessLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "integrity check failed")
		require.Contains(t, out.String(), "WARNING: 2 log(s) failed integrity check!")
		require.Contains(t, out.String(), failureReport.InvalidIDs[0].String())
	})
}
