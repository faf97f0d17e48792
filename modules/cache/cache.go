// Package cache provides a Redis-backed cache-aside layer for task reads.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// CacheService is the cache contract used by the task service.
//
// Every key carries an invalidation generation. Delete bumps it, so a value
// loaded before a Delete can be refused by SetIfUnchanged.
type CacheService interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Generation returns the current invalidation generation of key.
	Generation(ctx context.Context, key string) (int64, error)
	// SetIfUnchanged stores value only while key is still at generation gen
	// and reports whether it did.
	SetIfUnchanged(ctx context.Context, key string, gen int64, value any) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// generationTTL keeps generation counters well past any in-flight read.
const generationTTL = 24 * time.Hour

// KEYS: value key, generation key. ARGV: expected generation, data, ttl ms.
var setIfUnchangedScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if current ~= tonumber(ARGV[1]) then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// KEYS: pairs of value key and generation key. ARGV: generation ttl ms.
var invalidateScript = redis.NewScript(`
local n = 0
for i = 1, #KEYS, 2 do
  n = n + redis.call('DEL', KEYS[i])
  redis.call('INCR', KEYS[i + 1])
  redis.call('PEXPIRE', KEYS[i + 1], ARGV[1])
end
return n
`)

// Cache is a CacheService backed by Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  stats
}

type stats struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
	stale   atomic.Uint64
	errors  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the cache counters.
type StatsSnapshot struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Sets    uint64  `json:"sets"`
	Deletes uint64  `json:"deletes"`
	Stale   uint64  `json:"stale"`
	Errors  uint64  `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

var _ CacheService = (*Cache)(nil)

// New creates a cache over an existing client. Every key is stored under prefix.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.misses.Add(1)
			return false, nil
		}
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := sonic.Unmarshal(data, dest); err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.stats.hits.Add(1)
	return true, nil
}

// Set stores value with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache set error: %w", err)
	}

	c.stats.sets.Add(1)
	return nil
}

func (c *Cache) genKey(key string) string {
	return c.prefix + "gen:" + key
}

func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		c.stats.errors.Add(1)
		return 0, fmt.Errorf("cache generation error: %w", err)
	}
	return gen, nil
}

// SetIfUnchanged stores value with the configured TTL unless key was
// invalidated after gen was read.
func (c *Cache) SetIfUnchanged(ctx context.Context, key string, gen int64, value any) (bool, error) {
	data, err := sonic.Marshal(value)
	if err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache marshal error: %w", err)
	}

	keys := []string{c.prefix + key, c.genKey(key)}
	stored, err := setIfUnchangedScript.Run(ctx, c.client, keys, gen, data, c.ttl.Milliseconds()).Int64()
	if err != nil {
		c.stats.errors.Add(1)
		return false, fmt.Errorf("cache set error: %w", err)
	}
	if stored == 0 {
		c.stats.stale.Add(1)
		return false, nil
	}

	c.stats.sets.Add(1)
	return true, nil
}

// Delete removes keys and bumps their generations in one step.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		full = append(full, c.prefix+k, c.genKey(k))
	}

	n, err := invalidateScript.Run(ctx, c.client, full, generationTTL.Milliseconds()).Int64()
	if err != nil {
		c.stats.errors.Add(1)
		return fmt.Errorf("cache delete error: %w", err)
	}

	c.stats.deletes.Add(uint64(n))
	return nil
}

// Flush removes every key under the cache prefix.
func (c *Cache) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			c.stats.errors.Add(1)
			return fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.stats.errors.Add(1)
				return fmt.Errorf("cache delete error: %w", err)
			}
			c.stats.deletes.Add(uint64(len(keys)))
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Stats returns the current counters.
func (c *Cache) Stats() StatsSnapshot {
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return StatsSnapshot{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.stats.sets.Load(),
		Deletes: c.stats.deletes.Load(),
		Stale:   c.stats.stale.Load(),
		Errors:  c.stats.errors.Load(),
		HitRate: hitRate,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Noop is a CacheService that never stores anything. It is used when Redis
// is not configured.
type Noop struct{}

var _ CacheService = Noop{}

func (Noop) Get(context.Context, string, any) (bool, error)                   { return false, nil }
func (Noop) Set(context.Context, string, any) error                           { return nil }
func (Noop) Generation(context.Context, string) (int64, error)                { return 0, nil }
func (Noop) SetIfUnchanged(context.Context, string, int64, any) (bool, error) { return true, nil }
func (Noop) Delete(context.Context, ...string) error                          { return nil }
