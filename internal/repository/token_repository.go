package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "calendar:revoked:"

// TokenRepository keeps a denylist of revoked access token ids in Redis.
// With a nil client every token is treated as live and revocations are
// dropped, so logout only discards the token client side.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository constructs a token repository; client may be nil.
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

// Enabled reports whether revocations are persisted.
func (r *TokenRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Revoke records the token id until the token would have expired anyway.
func (r *TokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if !r.Enabled() {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke token %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether the token id is on the denylist.
func (r *TokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	err := r.client.Get(ctx, revokedTokenPrefix+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("redis lookup token %s: %w", tokenID, err)
	}
}
