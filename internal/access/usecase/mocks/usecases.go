package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/letterbox/internal/access/domain"
)

// MockRateLimitUseCase is a mock implementation of RateLimitUseCase.
type MockRateLimitUseCase struct {
	mock.Mock
}

// Consume mocks the Consume method.
func (m *MockRateLimitUseCase) Consume(ctx context.Context, identifier string) (*domain.RateLimitDecision, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateLimitDecision), args.Error(1)
}

// CleanStale mocks the CleanStale method.
func (m *MockRateLimitUseCase) CleanStale(ctx context.Context, dryRun bool) (int64, error) {
	args := m.Called(ctx, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccessLogUseCase is a mock implementation of AccessLogUseCase.
type MockAccessLogUseCase struct {
	mock.Mock
}

// Record mocks the Record method.
func (m *MockAccessLogUseCase) Record(ctx context.Context, input *domain.RecordAccessInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// ListRecent mocks the ListRecent method.
func (m *MockAccessLogUseCase) ListRecent(ctx context.Context, limit int) ([]*domain.AccessAttemptView, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccessAttemptView), args.Error(1)
}

// CountSince mocks the CountSince method.
func (m *MockAccessLogUseCase) CountSince(
	ctx context.Context,
	since time.Time,
	outcome domain.OutcomeFilter,
) (int64, error) {
	args := m.Called(ctx, since, outcome)
	return args.Get(0).(int64), args.Error(1)
}

// Stats mocks the Stats method.
func (m *MockAccessLogUseCase) Stats(ctx context.Context, since time.Time) (*domain.AccessStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessStats), args.Error(1)
}

// DeleteOlderThan mocks the DeleteOlderThan method.
func (m *MockAccessLogUseCase) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	args := m.Called(ctx, days, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// VerifyBatch mocks the VerifyBatch method.
func (m *MockAccessLogUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*domain.VerificationReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationReport), args.Error(1)
}

// MockVerificationUseCase is a mock implementation of VerificationUseCase.
type MockVerificationUseCase struct {
	mock.Mock
}

// VerifyAccess mocks the VerifyAccess method.
func (m *MockVerificationUseCase) VerifyAccess(
	ctx context.Context,
	input *domain.VerifyAccessInput,
) (domain.Outcome, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Outcome), args.Error(1)
}

// ValidateSession mocks the ValidateSession method.
func (m *MockVerificationUseCase) ValidateSession(token string, expectedSlug string) *domain.SessionClaims {
	args := m.Called(token, expectedSlug)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.SessionClaims)
}

// MockRecipientUseCase is a mock implementation of RecipientUseCase.
type MockRecipientUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockRecipientUseCase) Create(
	ctx context.Context,
	input *domain.CreateRecipientInput,
) (*domain.CreateRecipientOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreateRecipientOutput), args.Error(1)
}

// RotateAccessKey mocks the RotateAccessKey method.
func (m *MockRecipientUseCase) RotateAccessKey(ctx context.Context, slug string, accessKey string) (string, error) {
	args := m.Called(ctx, slug, accessKey)
	return args.String(0), args.Error(1)
}

// SetPublished mocks the SetPublished method.
func (m *MockRecipientUseCase) SetPublished(
	ctx context.Context,
	slug string,
	published bool,
) (*domain.Recipient, error) {
	args := m.Called(ctx, slug, published)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recipient), args.Error(1)
}

// UpdateContent mocks the UpdateContent method.
func (m *MockRecipientUseCase) UpdateContent(
	ctx context.Context,
	slug string,
	input *domain.UpdateRecipientInput,
) (*domain.Recipient, error) {
	args := m.Called(ctx, slug, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recipient), args.Error(1)
}

// Reorder mocks the Reorder method.
func (m *MockRecipientUseCase) Reorder(ctx context.Context, slugs []string) error {
	args := m.Called(ctx, slugs)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockRecipientUseCase) Delete(
	ctx context.Context,
	slug string,
	purgeAccessLogs bool,
) (*domain.DeleteRecipientOutput, error) {
	args := m.Called(ctx, slug, purgeAccessLogs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeleteRecipientOutput), args.Error(1)
}

// GetPage mocks the GetPage method.
func (m *MockRecipientUseCase) GetPage(
	ctx context.Context,
	slug string,
	claims *domain.SessionClaims,
) (*domain.RecipientPage, error) {
	args := m.Called(ctx, slug, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecipientPage), args.Error(1)
}
