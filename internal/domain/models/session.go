package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims are the claims of an admin session token
type AdminClaims struct {
	jwt.RegisteredClaims      // Standard JWT claims (sub, exp, iat, jti)
	CanDelete            bool `json:"can_delete"`
}

// Session is returned by a successful unlock
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
