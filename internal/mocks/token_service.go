package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/token"
)

// MockTokenService implements token.Service for testing
type MockTokenService struct {
	// IssueFn allows test cases to mock the Issue behavior
	IssueFn func(ctx context.Context, sessionID uuid.UUID) (token.Token, error)

	// ValidateFn allows test cases to mock the Validate behavior
	ValidateFn func(ctx context.Context, tokenString string) (*token.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       token.Token
	Err         error
	Claims      *token.Claims
	ValidateErr error
}

var _ token.Service = (*MockTokenService)(nil)

// Issue implements the token.Service interface
func (m *MockTokenService) Issue(ctx context.Context, sessionID uuid.UUID) (token.Token, error) {
	if m.IssueFn != nil {
		return m.IssueFn(ctx, sessionID)
	}
	return m.Token, m.Err
}

// Validate implements the token.Service interface
func (m *MockTokenService) Validate(ctx context.Context, tokenString string) (*token.Claims, error) {
	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}
