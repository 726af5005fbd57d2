package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/token"
	"github.com/redis/go-redis/v9"
)

// RevocationList tracks access tokens invalidated before their natural
// expiry. Entries are keyed by token fingerprint and expire with the token
// itself, so the list never grows beyond the live token population.
type RevocationList struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRevocationList creates a revocation list using the given client and
// key prefix.
func NewRevocationList(client redis.UniversalClient, prefix string) *RevocationList {
	if prefix == "" {
		prefix = "gs"
	}
	return &RevocationList{redis: client, prefix: prefix}
}

func (l *RevocationList) key(fp [32]byte) string {
	return l.prefix + ":denylist:" + token.FingerprintString(fp)
}

// Revoke inserts fp into the list until naturalExpiresAt passes. Idempotent;
// revoking a token that has already expired naturally is a no-op.
func (l *RevocationList) Revoke(ctx context.Context, fp [32]byte, naturalExpiresAt time.Time) error {
	ttl := time.Until(naturalExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := l.redis.Set(ctx, l.key(fp), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether fp is currently revoked. A backend failure is
// surfaced as [ErrStoreUnavailable]; callers must fail closed.
func (l *RevocationList) IsRevoked(ctx context.Context, fp [32]byte) (bool, error) {
	n, err := l.redis.Exists(ctx, l.key(fp)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
