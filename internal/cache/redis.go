package cache

import (
	"context"
	"sync"
	"time"

	"clinic-backend/internal/config"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache keys
const (
	SettingKeyFmt = "settings:%s"
	LockKeyPrefix = "lock:split:"
)

// Cache is Redis with an in-process fallback. When Redis is unreachable every call
// degrades to the local cache and local locks, so a single instance keeps working.
type Cache struct {
	client *redis.Client
	local  *gocache.Cache

	mu    sync.Mutex
	locks map[string]*keyLock
}

// New connects to Redis. The returned Cache is always usable; the error only
// reports that Redis is unavailable and the local fallback is in use.
func New(cfg *config.Config) (*Cache, error) {
	c := NewLocal()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client for graceful degradation
		client.Close()
		return c, err
	}

	c.client = client
	return c, nil
}

// NewLocal returns a Cache without Redis
func NewLocal() *Cache {
	return &Cache{
		local: gocache.New(5*time.Minute, 10*time.Minute),
		locks: make(map[string]*keyLock),
	}
}

// NewWithClient wraps an existing Redis client
func NewWithClient(client *redis.Client) *Cache {
	c := NewLocal()
	c.client = client
	return c
}

// Client returns the Redis client, nil when running on the local fallback
func (c *Cache) Client() *redis.Client {
	return c.client
}

// GetCached returns cached data for a key
func (c *Cache) GetCached(ctx context.Context, key string) ([]byte, bool) {
	if c.client == nil {
		v, ok := c.local.Get(key)
		if !ok {
			return nil, false
		}
		data, ok := v.([]byte)
		return data, ok
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func (c *Cache) SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if c.client == nil {
		c.local.Set(key, data, ttl)
		return
	}
	c.client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func (c *Cache) InvalidateKeys(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	for _, k := range keys {
		c.local.Delete(k)
	}
	if c.client != nil {
		c.client.Del(ctx, keys...)
	}
}

// IsHealthy returns true if Redis connection is working
func (c *Cache) IsHealthy() bool {
	if c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
