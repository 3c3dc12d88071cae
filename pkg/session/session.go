package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/instastorehq/storefront-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// VisitorClaims identifies an anonymous storefront visitor. Carts are keyed
// by the session id carried here; no user account is involved.
type VisitorClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// MintVisitorToken issues a signed token carrying a fresh visitor session id.
func MintVisitorToken(cfg config.SessionConfig, now time.Time) (string, string, error) {
	if cfg.Secret == "" {
		return "", "", fmt.Errorf("session secret is required")
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return "", "", fmt.Errorf("session ttl must be positive")
	}

	sessionID := uuid.NewString()
	claims := VisitorClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", "", fmt.Errorf("signing visitor token: %w", err)
	}
	return signed, sessionID, nil
}

// ParseVisitorToken validates the token string and returns the session id.
func ParseVisitorToken(cfg config.SessionConfig, tokenString string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("session secret is required")
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", fmt.Errorf("visitor token is required")
	}

	claims := &VisitorClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return "", fmt.Errorf("parsing visitor token: %w", err)
	}
	if claims.SessionID == "" {
		return "", fmt.Errorf("visitor token missing session id")
	}
	return claims.SessionID, nil
}
