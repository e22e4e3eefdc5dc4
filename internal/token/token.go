// Package token issues and validates the signed tokens that bind an HTTP
// client to its session. The session id travels as the JWT subject, so the
// server never keeps a token table.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-studygen/internal/config"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
)

const tokenType = "session"

// Service issues and validates session tokens.
type Service interface {
	// Issue creates a signed token for sessionID.
	Issue(ctx context.Context, sessionID uuid.UUID) (Token, error)

	// Validate verifies tokenString and returns its claims. Expired tokens
	// return ErrExpiredToken; anything else that fails returns ErrInvalidToken.
	Validate(ctx context.Context, tokenString string) (*Claims, error)
}

// Token is a signed session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims are the validated contents of a session token.
type Claims struct {
	SessionID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

type sessionClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// hmacService signs tokens with HMAC-SHA256.
type hmacService struct {
	signingKey []byte
	lifetime   time.Duration
	timeFunc   func() time.Time
	clockSkew  time.Duration
}

var _ Service = (*hmacService)(nil)

// NewService creates a Service from the session configuration.
func NewService(cfg config.SessionConfig) (Service, error) {
	return NewServiceWithClock(cfg.TokenSecret, cfg.TokenLifetime(), time.Now)
}

// NewServiceWithClock creates a Service with an injectable clock.
func NewServiceWithClock(secret string, lifetime time.Duration, now func() time.Time) (Service, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 characters")
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}
	return &hmacService{
		signingKey: []byte(secret),
		lifetime:   lifetime,
		timeFunc:   now,
		clockSkew:  30 * time.Second,
	}, nil
}

func (s *hmacService) Issue(ctx context.Context, sessionID uuid.UUID) (Token, error) {
	log := logger.FromContextOrDefault(ctx)
	now := s.timeFunc()
	expiresAt := now.Add(s.lifetime)

	claims := sessionClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign session token",
			"error", err,
			"session_id", sessionID,
			"signing_method", jwt.SigningMethodHS256.Name)
		return Token{}, fmt.Errorf("failed to sign session token with HMAC-SHA256: %w", err)
	}

	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

func (s *hmacService) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContextOrDefault(ctx)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := s.timeFunc()
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&sessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug("session token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		}
		log.Debug("session token validation failed",
			"error", err,
			"error_type", fmt.Sprintf("%T", err))
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.TokenType != tokenType {
		log.Debug("session token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	sessionID, err := uuid.Parse(claims.Subject)
	if err != nil {
		log.Debug("session token validation failed: subject is not a session id", "error", err)
		return nil, ErrInvalidToken
	}

	return &Claims{
		SessionID: sessionID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}
