package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface.
// Tokens are issued elsewhere; this service only verifies them.
type authService struct {
	authAdapter driven.AuthAdapter
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter) driving.AuthService {
	return &authService{
		authAdapter: authAdapter,
		now:         time.Now,
	}
}

// ValidateToken parses a bearer token and returns the caller it identifies
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}
	if claims.IsExpired(s.now()) {
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
