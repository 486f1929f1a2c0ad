package driven

import "github.com/custodia-labs/policylens/internal/core/domain"

// AuthAdapter handles bearer token operations.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
