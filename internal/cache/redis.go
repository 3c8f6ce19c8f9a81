package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beemapp/beem-server/internal/config"
)

// likeCountTTL bounds staleness of the denormalized counter cache; the DB
// row stays the source of truth.
const likeCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForLikeCount generates the Redis key for a profile's like counter.
func (c *RedisCache) KeyForLikeCount(profileID int64) string {
	return fmt.Sprintf("likes:count:%d", profileID)
}

// SetLikeCount overwrites the cached counter and refreshes its TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, profileID, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(profileID), count, likeCountTTL).Err()
}

// GetLikeCount reads the cached counter. The second return reports a hit;
// a miss is not an error.
func (c *RedisCache) GetLikeCount(ctx context.Context, profileID int64) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForLikeCount(profileID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, c.KeyForLikeCount(profileID), likeCountTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	return n, true, nil
}

// DropLikeCount invalidates the cached counter, forcing the next read to
// fall back to the DB.
func (c *RedisCache) DropLikeCount(ctx context.Context, profileID int64) error {
	return c.Client.Del(ctx, c.KeyForLikeCount(profileID)).Err()
}
