package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

const keyPrefix = "equipment_booking:views:"

// ViewCache stores derived views under versioned keys. Invalidating a view bumps its
// version counter, so stale entries are never read again and simply expire by TTL.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewCache(client *redis.Client, ttl time.Duration) *ViewCache {
	return &ViewCache{
		client: client,
		ttl:    ttl,
	}
}

func versionKey(view entity.View) string {
	return keyPrefix + "version:" + string(view)
}

func (c *ViewCache) dataKey(ctx context.Context, view entity.View, key string) (string, error) {
	version, err := c.client.Get(ctx, versionKey(view)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read view version: %w", err)
	}
	return fmt.Sprintf("%s%s:v%d:%s", keyPrefix, view, version, key), nil
}

// Get decodes the cached value into dest. On a miss it returns the versioned key
// to pass to Set; the version is read once, before the caller loads the value.
func (c *ViewCache) Get(ctx context.Context, view entity.View, key string, dest interface{}) (bool, string, error) {
	dk, err := c.dataKey(ctx, view, key)
	if err != nil {
		return false, "", err
	}

	data, err := c.client.Get(ctx, dk).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, dk, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to read view: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// битое значение перезапишется следующим Set
		return false, dk, fmt.Errorf("failed to decode view: %w", err)
	}
	return true, dk, nil
}

// Set stores value under the token returned by Get. If the view was invalidated
// in between, the token names a retired version and the value is never read.
func (c *ViewCache) Set(ctx context.Context, token string, value interface{}) error {
	if token == "" {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	return c.client.Set(ctx, token, data, c.ttl).Err()
}

func (c *ViewCache) Invalidate(ctx context.Context, views ...entity.View) error {
	if len(views) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for _, view := range views {
		pipe.Incr(ctx, versionKey(view))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate views: %w", err)
	}
	return nil
}
