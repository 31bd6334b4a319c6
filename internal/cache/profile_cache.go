package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"microblog/internal/config"
	"microblog/internal/feed"
)

// ProfileCache is a redis-backed read-through cache for profile display
// metadata, invalidated on profile mutation. It satisfies feed.IdentityCache
// and the user service's CacheInvalidator.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache connects to redis. An empty address returns (nil, nil):
// the resolvers treat a nil cache as "caching disabled".
func NewProfileCache(cfg config.RedisConfig) (*ProfileCache, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.TTLSecs) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ProfileCache{client: client, ttl: ttl}, nil
}

func key(userID string) string {
	return "profile:id:" + userID
}

// GetMany returns the cached identities for the hit subset of ids.
func (c *ProfileCache) GetMany(ctx context.Context, ids []string) (map[string]feed.Identity, error) {
	if len(ids) == 0 {
		return map[string]feed.Identity{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}

	hits := make(map[string]feed.Identity, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // miss
		}
		var identity feed.Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			continue // stale or corrupt entry, treat as a miss
		}
		hits[ids[i]] = identity
	}
	return hits, nil
}

func (c *ProfileCache) SetMany(ctx context.Context, identities map[string]feed.Identity) error {
	if len(identities) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for id, identity := range identities {
		data, err := json.Marshal(identity)
		if err != nil {
			return fmt.Errorf("failed to marshal cache entry: %w", err)
		}
		pipe.Set(ctx, key(id), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write to redis: %w", err)
	}
	return nil
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, key(userID)).Err()
}

func (c *ProfileCache) Close() error {
	return c.client.Close()
}
