package domain

import "time"

// TokenClaims is the verified payload of a caller's bearer token.
// Tokens are optional; they only attribute analyze requests to a user.
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsExpired checks if the claims have expired at now
func (c *TokenClaims) IsExpired(now time.Time) bool {
	return c.ExpiresAt != 0 && now.Unix() >= c.ExpiresAt
}

// AuthContext contains the authenticated caller for request context
type AuthContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}
