package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/access/usecase"
	"github.com/allisson/letterbox/internal/access/usecase/mocks"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordVerification(ctx context.Context, outcome string) {
	m.Called(ctx, outcome)
}

func expectOperation(m *mockBusinessMetrics, ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "access", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "access", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestVerificationUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	input := &domain.VerifyAccessInput{Slug: "ana", AccessKey: "paris-2019", ClientID: "203.0.113.7"}

	t.Run("Granted", func(t *testing.T) {
		mockNext := &mocks.MockVerificationUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewVerificationUseCaseWithMetrics(mockNext, mockMetrics)
		granted := &domain.Granted{Token: "token"}

		mockNext.On("VerifyAccess", ctx, input).Return(granted, nil).Once()
		expectOperation(mockMetrics, ctx, "verify", "success")
		mockMetrics.On("RecordVerification", ctx, "granted").Return().Once()

		outcome, err := uc.VerifyAccess(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, granted, outcome)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Denied", func(t *testing.T) {
		mockNext := &mocks.MockVerificationUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewVerificationUseCaseWithMetrics(mockNext, mockMetrics)
		denied := &domain.Denied{Reason: domain.DenialInvalidKey}

		mockNext.On("VerifyAccess", ctx, input).Return(denied, nil).Once()
		expectOperation(mockMetrics, ctx, "verify", "success")
		mockMetrics.On("RecordVerification", ctx, "INVALID_KEY").Return().Once()

		outcome, err := uc.VerifyAccess(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, denied, outcome)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		mockNext := &mocks.MockVerificationUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewVerificationUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("VerifyAccess", ctx, input).Return(nil, domain.ErrStorageUnavailable).Once()
		expectOperation(mockMetrics, ctx, "verify", "error")

		outcome, err := uc.VerifyAccess(ctx, input)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
		assert.Nil(t, outcome)
		mockMetrics.AssertExpectations(t)
		mockMetrics.AssertNotCalled(t, "RecordVerification", mock.Anything, mock.Anything)
	})

	t.Run("ValidateSession not instrumented", func(t *testing.T) {
		mockNext := &mocks.MockVerificationUseCase{}
		mockMetrics := &mockBusinessMetrics{}
		uc := usecase.NewVerificationUseCaseWithMetrics(mockNext, mockMetrics)

		mockNext.On("ValidateSession", "token", "ana").Return(nil).Once()

		assert.Nil(t, uc.ValidateSession("token", "ana"))
		mockMetrics.AssertNotCalled(t, "RecordOperation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRateLimitUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	mockNext := &mocks.MockRateLimitUseCase{}
	mockMetrics := &mockBusinessMetrics{}
	uc := usecase.NewRateLimitUseCaseWithMetrics(mockNext, mockMetrics)

	t.Run("Consume success", func(t *testing.T) {
		decision := &domain.RateLimitDecision{Allowed: true, Attempts: 1, Remaining: 4}
		mockNext.On("Consume", ctx, "203.0.113.7").Return(decision, nil).Once()
		expectOperation(mockMetrics, ctx, "rate_limit_consume", "success")

		res, err := uc.Consume(ctx, "203.0.113.7")
		assert.NoError(t, err)
		assert.Equal(t, decision, res)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("CleanStale error", func(t *testing.T) {
		mockNext.On("CleanStale", ctx, true).Return(int64(0), errors.New("error")).Once()
		expectOperation(mockMetrics, ctx, "rate_limit_clean", "error")

		count, err := uc.CleanStale(ctx, true)
		assert.Error(t, err)
		assert.Zero(t, count)
		mockMetrics.AssertExpectations(t)
	})
}

func TestAccessLogUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	mockNext := &mocks.MockAccessLogUseCase{}
	mockMetrics := &mockBusinessMetrics{}
	uc := usecase.NewAccessLogUseCaseWithMetrics(mockNext, mockMetrics)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Record success", func(t *testing.T) {
		input := &domain.RecordAccessInput{Success: true}
		mockNext.On("Record", ctx, input).Return(nil).Once()
		expectOperation(mockMetrics, ctx, "access_log_record", "success")

		assert.NoError(t, uc.Record(ctx, input))
		mockMetrics.AssertExpectations(t)
	})

	t.Run("ListRecent success", func(t *testing.T) {
		views := []*domain.AccessAttemptView{}
		mockNext.On("ListRecent", ctx, 10).Return(views, nil).Once()
		expectOperation(mockMetrics, ctx, "access_log_list", "success")

		res, err := uc.ListRecent(ctx, 10)
		assert.NoError(t, err)
		assert.Equal(t, views, res)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("CountSince success", func(t *testing.T) {
		mockNext.On("CountSince", ctx, since, domain.OutcomeFilterSuccess).Return(int64(3), nil).Once()
		expectOperation(mockMetrics, ctx, "access_log_count", "success")

		count, err := uc.CountSince(ctx, since, domain.OutcomeFilterSuccess)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Stats error", func(t *testing.T) {
		mockNext.On("Stats", ctx, since).Return(nil, errors.New("error")).Once()
		expectOperation(mockMetrics, ctx, "access_log_stats", "error")

		stats, err := uc.Stats(ctx, since)
		assert.Error(t, err)
		assert.Nil(t, stats)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("DeleteOlderThan success", func(t *testing.T) {
		mockNext.On("DeleteOlderThan", ctx, 90, false).Return(int64(12), nil).Once()
		expectOperation(mockMetrics, ctx, "access_log_delete", "success")

		count, err := uc.DeleteOlderThan(ctx, 90, false)
		assert.NoError(t, err)
		assert.Equal(t, int64(12), count)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("VerifyBatch success", func(t *testing.T) {
		end := since.Add(24 * time.Hour)
		report := &domain.VerificationReport{TotalChecked: 2}
		mockNext.On("VerifyBatch", ctx, since, end).Return(report, nil).Once()
		expectOperation(mockMetrics, ctx, "access_log_verify", "success")

		res, err := uc.VerifyBatch(ctx, since, end)
		assert.NoError(t, err)
		assert.Equal(t, report, res)
		mockMetrics.AssertExpectations(t)
	})
}

func TestRecipientUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	mockNext := &mocks.MockRecipientUseCase{}
	mockMetrics := &mockBusinessMetrics{}
	uc := usecase.NewRecipientUseCaseWithMetrics(mockNext, mockMetrics)

	t.Run("Create success", func(t *testing.T) {
		input := &domain.CreateRecipientInput{Slug: "ana", Name: "Ana"}
		output := &domain.CreateRecipientOutput{AccessKey: "generated"}
		mockNext.On("Create", ctx, input).Return(output, nil).Once()
		expectOperation(mockMetrics, ctx, "recipient_create", "success")

		res, err := uc.Create(ctx, input)
		assert.NoError(t, err)
		assert.Equal(t, output, res)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("RotateAccessKey error", func(t *testing.T) {
		mockNext.On("RotateAccessKey", ctx, "ghost", "").Return("", domain.ErrRecipientNotFound).Once()
		expectOperation(mockMetrics, ctx, "recipient_rotate_key", "error")

		key, err := uc.RotateAccessKey(ctx, "ghost", "")
		assert.ErrorIs(t, err, domain.ErrRecipientNotFound)
		assert.Empty(t, key)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("SetPublished success", func(t *testing.T) {
		recipient := &domain.Recipient{Slug: "ana", IsPublished: true}
		mockNext.On("SetPublished", ctx, "ana", true).Return(recipient, nil).Once()
		expectOperation(mockMetrics, ctx, "recipient_set_published", "success")

		res, err := uc.SetPublished(ctx, "ana", true)
		assert.NoError(t, err)
		assert.Equal(t, recipient, res)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("GetPage success", func(t *testing.T) {
		page := &domain.RecipientPage{}
		mockNext.On("GetPage", ctx, "ana", (*domain.SessionClaims)(nil)).Return(page, nil).Once()
		expectOperation(mockMetrics, ctx, "recipient_get_page", "success")

		res, err := uc.GetPage(ctx, "ana", nil)
		assert.NoError(t, err)
		assert.Equal(t, page, res)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("UpdateContent success", func(t *testing.T) {
		input := &domain.UpdateRecipientInput{}
		recipient := &domain.Recipient{Slug: "ana"}
		mockNext.On("UpdateContent", ctx, "ana", input).Return(recipient, nil).Once()
		expectOperation(mockMetrics, ctx, "recipient_update", "success")

		res, err := uc.UpdateContent(ctx, "ana", input)
		assert.NoError(t, err)
		assert.Equal(t, recipient, res)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Reorder success", func(t *testing.T) {
		mockNext.On("Reorder", ctx, []string{"bia", "ana"}).Return(nil).Once()
		expectOperation(mockMetrics, ctx, "recipient_reorder", "success")

		assert.NoError(t, uc.Reorder(ctx, []string{"bia", "ana"}))
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Delete error", func(t *testing.T) {
		mockNext.On("Delete", ctx, "ana", false).Return(nil, domain.ErrRecipientHasAccessHistory).Once()
		expectOperation(mockMetrics, ctx, "recipient_delete", "error")

		res, err := uc.Delete(ctx, "ana", false)
		assert.ErrorIs(t, err, domain.ErrRecipientHasAccessHistory)
		assert.Nil(t, res)
		mockMetrics.AssertExpectations(t)
	})
}
