package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPageTTL matches the short fixed timeout of the index page.
const DefaultPageTTL = 20 * time.Second

// PageCache stores rendered responses as opaque bytes keyed by route.
// Entries expire after TTL; Clear drops every entry immediately.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
	Clear(ctx context.Context) error
	TTL() time.Duration
}

// RedisPageCache keeps pages under the page_cache: prefix so Clear never
// touches unrelated keys.
type RedisPageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPageCache returns a Redis-backed PageCache.
func NewRedisPageCache(rdb *redis.Client, ttl time.Duration) *RedisPageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &RedisPageCache{rdb: rdb, ttl: ttl}
}

func (c *RedisPageCache) TTL() time.Duration { return c.ttl }

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, PageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("page cache get %q: %w", key, err)
	}
	return b, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.rdb.Set(ctx, PageKey(key), body, c.ttl).Err(); err != nil {
		return fmt.Errorf("page cache set %q: %w", key, err)
	}
	return nil
}

func (c *RedisPageCache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, PageKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("page cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("page cache clear: %w", err)
	}
	return nil
}

type memoryEntry struct {
	body      []byte
	expiresAt time.Time
}

// MemoryPageCache is a process-local PageCache. Now is injectable so tests
// can move time forward without sleeping.
type MemoryPageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	Now     func() time.Time
}

// NewMemoryPageCache returns an in-process PageCache using the wall clock.
func NewMemoryPageCache(ttl time.Duration) *MemoryPageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &MemoryPageCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		Now:     time.Now,
	}
}

func (c *MemoryPageCache) TTL() time.Duration { return c.ttl }

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.body...), true, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		body:      append([]byte(nil), body...),
		expiresAt: c.Now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryPageCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memoryEntry)
	return nil
}
