// Package session issues and validates the signed tokens carried in
// the authentication cookie. A token references a server-side session
// row by id, so logout can invalidate it before the signature expires.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the session token payload
type Claims struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	SessionID uuid.UUID `json:"session_id"`
	Remember  bool      `json:"remember"`
	jwt.RegisteredClaims
}

// Service signs and validates session tokens
type Service struct {
	secret      string
	ttl         time.Duration
	rememberTTL time.Duration
}

// NewService creates a new session token service
func NewService(secret string, ttl, rememberTTL time.Duration) *Service {
	return &Service{
		secret:      secret,
		ttl:         ttl,
		rememberTTL: rememberTTL,
	}
}

// TTL returns the configured lifetime for a session
func (s *Service) TTL(remember bool) time.Duration {
	if remember {
		return s.rememberTTL
	}
	return s.ttl
}

// Issue signs a new session token. The returned expiry matches the
// token's ExpiresAt claim.
func (s *Service) Issue(userID int64, username, role string, sessionID uuid.UUID, remember bool) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.TTL(remember))

	claims := Claims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		SessionID: sessionID,
		Remember:  remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "visitorlog-backend",
			Subject:   fmt.Sprintf("%d", userID),
			ID:        sessionID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses and verifies a session token
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid session token claims")
	}

	if claims.SessionID == uuid.Nil {
		return nil, fmt.Errorf("session token missing session id")
	}

	return claims, nil
}

// RemainingLifetime reports how long the token stays valid from now
func (c *Claims) RemainingLifetime(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}
