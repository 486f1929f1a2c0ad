package driving

import (
	"context"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// AuthService verifies optional caller bearer tokens
type AuthService interface {
	// ValidateToken verifies a bearer token and returns the caller
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
