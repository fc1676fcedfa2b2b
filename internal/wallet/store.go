package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agripulse/marketplace/internal/apperrors"
)

// tokenIDKey caches the most recently created shared carbon-credit
// token id so new listings reuse it instead of creating another token.
const tokenIDKey = "agripulse_token_id"

// Store persists wallet bindings in the key-value store, keyed
// "wallet_<ownerId>". Bindings never expire.
type Store interface {
	SaveBinding(ctx context.Context, binding *Binding) error
	GetBinding(ctx context.Context, ownerID string) (*Binding, error)
	SaveTokenID(ctx context.Context, tokenID string) error
	GetTokenID(ctx context.Context) (string, error)
}

type redisStore struct {
	rdb *redis.Client
}

// NewStore creates a redis-backed wallet store.
func NewStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func bindingKey(ownerID string) string {
	return fmt.Sprintf("wallet_%s", ownerID)
}

func (s *redisStore) SaveBinding(ctx context.Context, binding *Binding) error {
	data, err := json.Marshal(binding)
	if err != nil {
		return fmt.Errorf("marshal binding: %w", err)
	}
	if err := s.rdb.Set(ctx, bindingKey(binding.OwnerID), data, 0).Err(); err != nil {
		return &apperrors.BackingStoreError{Op: "save wallet binding", Cause: err}
	}
	return nil
}

func (s *redisStore) GetBinding(ctx context.Context, ownerID string) (*Binding, error) {
	data, err := s.rdb.Get(ctx, bindingKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "get wallet binding", Cause: err}
	}

	var binding Binding
	if err := json.Unmarshal(data, &binding); err != nil {
		return nil, fmt.Errorf("unmarshal binding: %w", err)
	}
	binding.OwnerID = ownerID
	return &binding, nil
}

func (s *redisStore) SaveTokenID(ctx context.Context, tokenID string) error {
	if err := s.rdb.Set(ctx, tokenIDKey, tokenID, 0).Err(); err != nil {
		return &apperrors.BackingStoreError{Op: "save token id", Cause: err}
	}
	return nil
}

func (s *redisStore) GetTokenID(ctx context.Context) (string, error) {
	tokenID, err := s.rdb.Get(ctx, tokenIDKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", &apperrors.BackingStoreError{Op: "get token id", Cause: err}
	}
	return tokenID, nil
}
