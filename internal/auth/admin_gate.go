package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
)

const issuer = "diagramlab"

// AdminGate exchanges the shared admin password for a signed session token
// and verifies those tokens. Tokens are HS256 JWTs carrying can_delete.
type AdminGate struct {
	passwordHash [sha256.Size]byte
	enabled      bool
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewAdminGate creates a gate. An empty password disables unlocking. An
// empty secret gets a random one, so sessions end with the process.
func NewAdminGate(password, secret string, ttl time.Duration, logger *slog.Logger) (*AdminGate, error) {
	if ttl <= 0 {
		return nil, errors.New("admin session TTL must be positive")
	}

	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		logger.Warn("ADMIN_TOKEN_SECRET not set, admin sessions will not survive a restart")
	}

	if password == "" {
		logger.Warn("ADMIN_PASSWORD not set, delete operations are disabled")
	}

	return &AdminGate{
		passwordHash: sha256.Sum256([]byte(password)),
		enabled:      password != "",
		secret:       key,
		ttl:          ttl,
		now:          time.Now,
		logger:       logger,
	}, nil
}

// Unlock checks the password and issues a session token
func (g *AdminGate) Unlock(password string) (*models.Session, error) {
	// Hashing first keeps the comparison constant-time regardless of length
	given := sha256.Sum256([]byte(password))
	if !g.enabled || subtle.ConstantTimeCompare(given[:], g.passwordHash[:]) != 1 {
		g.logger.Warn("admin unlock rejected")
		return nil, domain.ErrUnauthorized
	}

	now := g.now()
	expiresAt := now.Add(g.ttl)
	claims := &models.AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "admin",
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		CanDelete: true,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	g.logger.Info("admin session unlocked", "session_id", claims.ID, "expires_at", expiresAt)
	return &models.Session{Token: signed, ExpiresAt: expiresAt}, nil
}

// VerifyToken validates a session token and returns its claims
func (g *AdminGate) VerifyToken(tokenString string) (*models.AdminClaims, error) {
	claims := &models.AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return g.secret, nil },
		// Prevent algorithm confusion attacks
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		g.logger.Debug("session token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}
