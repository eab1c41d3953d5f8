package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/letterbox/internal/access/domain"
)

// MockSecretService is a mock implementation of SecretService.
type MockSecretService struct {
	mock.Mock
}

// GenerateSecret mocks the GenerateSecret method.
func (m *MockSecretService) GenerateSecret() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

// HashSecret mocks the HashSecret method.
func (m *MockSecretService) HashSecret(plainSecret string) (string, error) {
	args := m.Called(plainSecret)
	return args.String(0), args.Error(1)
}

// CompareSecret mocks the CompareSecret method.
func (m *MockSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

// MockSessionService is a mock implementation of SessionService.
type MockSessionService struct {
	mock.Mock
}

// Issue mocks the Issue method.
func (m *MockSessionService) Issue(recipientID uuid.UUID, slug string) (*domain.SessionToken, error) {
	args := m.Called(recipientID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionToken), args.Error(1)
}

// Validate mocks the Validate method.
func (m *MockSessionService) Validate(token string, expectedSlug string) *domain.SessionClaims {
	args := m.Called(token, expectedSlug)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.SessionClaims)
}

// MockAccessSigner is a mock implementation of AccessSigner.
type MockAccessSigner struct {
	mock.Mock
}

// Sign mocks the Sign method.
func (m *MockAccessSigner) Sign(attempt *domain.AccessAttempt) ([]byte, error) {
	args := m.Called(attempt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Verify mocks the Verify method.
func (m *MockAccessSigner) Verify(attempt *domain.AccessAttempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}
