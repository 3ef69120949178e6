package directory

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// EmailCache holds the set of municipality contact emails.
type EmailCache interface {
	// Contains reports membership; loaded is false when the set has never
	// been filled and the caller should read through to the store.
	Contains(ctx context.Context, email string) (found, loaded bool, err error)
	// Replace swaps the whole set for emails.
	Replace(ctx context.Context, emails []string) error
}

/* ---------- redis ---------- */

// DefaultCacheKey is the Redis set holding municipality emails.
const DefaultCacheKey = "ecofy:municipality:emails"

// loadedMarker is stored in the set so an empty directory still counts as
// loaded. It can never collide with an address.
const loadedMarker = "#loaded"

type RedisCache struct {
	client *redis.Client
	key    string
}

func NewRedisCache(client *redis.Client, key string) *RedisCache {
	if key == "" {
		key = DefaultCacheKey
	}
	return &RedisCache{client: client, key: key}
}

func (c *RedisCache) Contains(ctx context.Context, email string) (bool, bool, error) {
	var loaded, found *redis.BoolCmd
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		loaded = p.SIsMember(ctx, c.key, loadedMarker)
		found = p.SIsMember(ctx, c.key, email)
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return found.Val(), loaded.Val(), nil
}

func (c *RedisCache) Replace(ctx context.Context, emails []string) error {
	members := make([]interface{}, 0, len(emails)+1)
	members = append(members, loadedMarker)
	for _, e := range emails {
		members = append(members, e)
	}
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, c.key)
		p.SAdd(ctx, c.key, members...)
		return nil
	})
	return err
}

/* ---------- memory ---------- */

type MemoryCache struct {
	mu     sync.RWMutex
	emails map[string]struct{}
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Contains(_ context.Context, email string) (bool, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.emails == nil {
		return false, false, nil
	}
	_, ok := c.emails[email]
	return ok, true, nil
}

func (c *MemoryCache) Replace(_ context.Context, emails []string) error {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		set[e] = struct{}{}
	}
	c.mu.Lock()
	c.emails = set
	c.mu.Unlock()
	return nil
}
