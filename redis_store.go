package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const redisRevokedKeyPrefix = "auth:revoked:"

// RedisBlacklistStore is the blacklist strategy on Redis. Each entry carries
// a TTL equal to the remaining life of the token it revokes, so pruning
// happens inside Redis and Prune has nothing to do.
type RedisBlacklistStore struct {
	client redis.UniversalClient
	prefix string
}

var _ SessionStore = (*RedisBlacklistStore)(nil)

func NewRedisBlacklistStore(client redis.UniversalClient) *RedisBlacklistStore {
	return &RedisBlacklistStore{
		client: client,
		prefix: redisRevokedKeyPrefix,
	}
}

// WithKeyPrefix overrides the key namespace, useful when several services
// share one Redis.
func (s *RedisBlacklistStore) WithKeyPrefix(prefix string) *RedisBlacklistStore {
	if prefix != "" {
		s.prefix = prefix
	}
	return s
}

// Persist is a no-op: the blacklist only tracks revoked access tokens.
func (s *RedisBlacklistStore) Persist(ctx context.Context, record *RefreshToken) error {
	return nil
}

func (s *RedisBlacklistStore) IsLive(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+token).Result()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token blacklist")
	}
	return n == 0, nil
}

func (s *RedisBlacklistStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already past expiry, the signature check rejects it from here on.
		return nil
	}

	if err := s.client.Set(ctx, s.prefix+token, "1", ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to blacklist token")
	}

	return nil
}

// Prune is a no-op: entries expire with their key TTL.
func (s *RedisBlacklistStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
