package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agripulse/marketplace/internal/apperrors"
)

// RevocationList records session token ids that were signed out before
// their expiry. An entry lives exactly as long as the token it
// denylists would have, so the list never accumulates dead weight.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisRevocationList struct {
	rdb *redis.Client
}

// NewRevocationList creates a redis-backed revocation list.
func NewRevocationList(rdb *redis.Client) RevocationList {
	return &redisRevocationList{rdb: rdb}
}

func revocationKey(tokenID string) string {
	return fmt.Sprintf("revoked_token_%s", tokenID)
}

func (l *redisRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := l.rdb.Set(ctx, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return &apperrors.BackingStoreError{Op: "revoke session token", Cause: err}
	}
	return nil
}

func (l *redisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := l.rdb.Get(ctx, revocationKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, &apperrors.BackingStoreError{Op: "check session token", Cause: err}
	}
	return true, nil
}
