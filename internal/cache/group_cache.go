// Package cache holds Redis read-through caches for reference data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/news-portal/internal/domain"
)

const groupsKey = "news:groups:v1"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// GroupCache caches the news group list. A nil client makes every call a miss.
type GroupCache struct {
	client redisClient
	ttl    time.Duration
}

// NewGroupCache wraps client. client may be nil when Redis is not configured.
func NewGroupCache(client *redis.Client, ttl time.Duration) *GroupCache {
	if client == nil {
		return &GroupCache{ttl: ttl}
	}
	return &GroupCache{client: client, ttl: ttl}
}

type cachedGroup struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Groups returns the cached list. ok is false on a miss or when disabled.
func (c *GroupCache) Groups(ctx context.Context) ([]domain.NewsGroup, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, groupsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached []cachedGroup
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, err
	}
	groups := make([]domain.NewsGroup, 0, len(cached))
	for _, g := range cached {
		groups = append(groups, domain.NewsGroup{ID: g.ID, Title: g.Title})
	}
	return groups, true, nil
}

// StoreGroups writes the list with the configured TTL.
func (c *GroupCache) StoreGroups(ctx context.Context, groups []domain.NewsGroup) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	cached := make([]cachedGroup, 0, len(groups))
	for _, g := range groups {
		cached = append(cached, cachedGroup{ID: g.ID, Title: g.Title})
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, groupsKey, raw, c.ttl).Err()
}

// Invalidate drops the cached list.
func (c *GroupCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, groupsKey).Err()
}
