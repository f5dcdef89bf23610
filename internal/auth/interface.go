package auth

import "diagramlab/internal/domain/models"

// SessionVerifier validates admin session tokens.
// The middleware depends on this rather than on a concrete gate.
type SessionVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Returns domain.ErrUnauthorized if the token is invalid or expired.
	VerifyToken(tokenString string) (*models.AdminClaims, error)
}
