package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "stewardship/pkg/domain"
)

const (
	redisGenerationKey = "stewardship:access:generation"
	redisActorsPrefix  = "stewardship:access:actors:"
)

// RedisCache shares accessible-actor sets between instances. Entries are
// namespaced by a generation counter so InvalidateAll is a single INCR;
// superseded generations age out through their TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed cache. ttl must be positive.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, recordID id.RecordID) ([]id.ActorID, bool, error) {
	key, err := c.key(ctx, recordID)
	if err != nil {
		return nil, false, err
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find accessible actors: %w", err)
	}
	var actors []id.ActorID
	if err := json.Unmarshal(data, &actors); err != nil {
		return nil, false, fmt.Errorf("decode accessible actors: %w", err)
	}
	return actors, true, nil
}

func (c *RedisCache) Set(ctx context.Context, recordID id.RecordID, actors []id.ActorID) error {
	if actors == nil {
		actors = []id.ActorID{}
	}
	payload, err := json.Marshal(actors)
	if err != nil {
		return fmt.Errorf("encode accessible actors: %w", err)
	}
	key, err := c.key(ctx, recordID)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save accessible actors: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, recordID id.RecordID) error {
	key, err := c.key(ctx, recordID)
	if err != nil {
		return err
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("invalidate accessible actors: %w", err)
	}
	return nil
}

func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, redisGenerationKey).Err(); err != nil {
		return fmt.Errorf("bump access cache generation: %w", err)
	}
	return nil
}

func (c *RedisCache) key(ctx context.Context, recordID id.RecordID) (string, error) {
	gen, err := c.client.Get(ctx, redisGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("read access cache generation: %w", err)
	}
	return fmt.Sprintf("%s%d:%s", redisActorsPrefix, gen, recordID.String()), nil
}
