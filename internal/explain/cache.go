package explain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Cache stores explanations keyed by question text.
type Cache interface {
	Get(ctx context.Context, question string) (string, bool, error)
	Set(ctx context.Context, question, explanation string) error
	Clear(ctx context.Context) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, question string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[question]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, question, explanation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[question] = explanation
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// DefaultRedisPrefix namespaces explanation keys in Redis.
const DefaultRedisPrefix = "survey:explain:"

// RedisCache stores explanations in Redis so they survive restarts and are
// shared between server instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps client. A zero ttl keeps entries until cleared.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis parses a redis:// URL and verifies the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "explain: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "explain: ping redis")
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, question string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+question).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "explain: redis get")
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, question, explanation string) error {
	return eris.Wrap(c.client.Set(ctx, c.prefix+question, explanation, c.ttl).Err(), "explain: redis set")
}

func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return eris.Wrap(err, "explain: redis scan")
	}
	if len(keys) == 0 {
		return nil
	}
	return eris.Wrap(c.client.Del(ctx, keys...).Err(), "explain: redis del")
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (nopCache) Set(context.Context, string, string) error        { return nil }
func (nopCache) Clear(context.Context) error                      { return nil }
