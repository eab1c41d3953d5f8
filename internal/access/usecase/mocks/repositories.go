// Package mocks provides testify mock implementations of the access-control repositories,
// services and use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/letterbox/internal/access/domain"
)

// MockRecipientRepository is a mock implementation of RecipientRepository.
type MockRecipientRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockRecipientRepository) Create(ctx context.Context, recipient *domain.Recipient) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

// Update mocks the Update method.
func (m *MockRecipientRepository) Update(ctx context.Context, recipient *domain.Recipient) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

// GetBySlug mocks the GetBySlug method.
func (m *MockRecipientRepository) GetBySlug(ctx context.Context, slug string) (*domain.Recipient, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recipient), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockRecipientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Count mocks the Count method.
func (m *MockRecipientRepository) Count(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockRateLimitRepository is a mock implementation of RateLimitRepository.
type MockRateLimitRepository struct {
	mock.Mock
}

// AcquireForUpdate mocks the AcquireForUpdate method.
func (m *MockRateLimitRepository) AcquireForUpdate(
	ctx context.Context,
	identifier string,
) (*domain.RateLimitCounter, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateLimitCounter), args.Error(1)
}

// Save mocks the Save method.
func (m *MockRateLimitRepository) Save(ctx context.Context, counter *domain.RateLimitCounter) error {
	args := m.Called(ctx, counter)
	return args.Error(0)
}

// DeleteStale mocks the DeleteStale method.
func (m *MockRateLimitRepository) DeleteStale(ctx context.Context, before time.Time, dryRun bool) (int64, error) {
	args := m.Called(ctx, before, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// MockAccessAttemptRepository is a mock implementation of AccessAttemptRepository.
type MockAccessAttemptRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockAccessAttemptRepository) Create(ctx context.Context, attempt *domain.AccessAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

// ListRecent mocks the ListRecent method.
func (m *MockAccessAttemptRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AccessAttemptView, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccessAttemptView), args.Error(1)
}

// ListBetween mocks the ListBetween method.
func (m *MockAccessAttemptRepository) ListBetween(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*domain.AccessAttempt, error) {
	args := m.Called(ctx, start, end, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccessAttempt), args.Error(1)
}

// CountSince mocks the CountSince method.
func (m *MockAccessAttemptRepository) CountSince(
	ctx context.Context,
	since time.Time,
	outcome domain.OutcomeFilter,
) (int64, error) {
	args := m.Called(ctx, since, outcome)
	return args.Get(0).(int64), args.Error(1)
}

// ViewsPerRecipient mocks the ViewsPerRecipient method.
func (m *MockAccessAttemptRepository) ViewsPerRecipient(
	ctx context.Context,
	since time.Time,
) ([]*domain.RecipientViews, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RecipientViews), args.Error(1)
}

// DeleteOlderThan mocks the DeleteOlderThan method.
func (m *MockAccessAttemptRepository) DeleteOlderThan(
	ctx context.Context,
	olderThan time.Time,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, olderThan, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteByRecipient mocks the DeleteByRecipient method.
func (m *MockAccessAttemptRepository) DeleteByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	dryRun bool,
) (int64, error) {
	args := m.Called(ctx, recipientID, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

// MockTxManager is a mock implementation of database.TxManager. It runs fn with the given
// context after recording the call, so repository expectations still apply.
type MockTxManager struct {
	mock.Mock
}

// WithTx mocks the WithTx method.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
