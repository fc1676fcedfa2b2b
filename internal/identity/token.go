package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agripulse/marketplace/internal/apperrors"
)

// Claims carried by a session token.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens. A revoked token id
// stays refused until the token would have expired anyway.
type TokenIssuer struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationList
}

func NewTokenIssuer(secret string, ttl time.Duration, revocations RevocationList) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, revocations: revocations}
}

// Issue creates a signed session token for the identity.
func (t *TokenIssuer) Issue(userID uuid.UUID, role Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, &apperrors.AuthError{Reason: "invalid session token", Cause: err}
	}
	if !token.Valid {
		return nil, &apperrors.AuthError{Reason: "invalid session token"}
	}
	return claims, nil
}

// Revoke denylists the token until its natural expiry. Revoking an
// already revoked or expired token is a no-op.
func (t *TokenIssuer) Revoke(ctx context.Context, claims *Claims) error {
	if t.revocations == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return t.revocations.Revoke(ctx, claims.ID, ttl)
}

// IsRevoked reports whether the token was signed out before expiry.
// Errors from the revocation store fail closed.
func (t *TokenIssuer) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	if t.revocations == nil || claims == nil || claims.ID == "" {
		return false, nil
	}
	return t.revocations.IsRevoked(ctx, claims.ID)
}
