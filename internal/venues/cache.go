package venues

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/example/snipe/internal/api"
)

// MemoryCache keeps venues for the life of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]api.Venue
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]api.Venue)}
}

func (c *MemoryCache) Get(_ context.Context, id string) (api.Venue, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[id]
	return v, ok
}

func (c *MemoryCache) Set(_ context.Context, v api.Venue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[v.ID] = v
}

// RedisCache shares venue metadata between server processes. Errors are
// logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// OpenRedis parses a redis:// URL and checks the connection.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func redisKey(id string) string {
	return "venue:" + id
}

func (c *RedisCache) Get(ctx context.Context, id string) (api.Venue, bool) {
	data, err := c.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithField("venue_id", id).WithError(err).Warn("venues: redis get failed")
		}
		return api.Venue{}, false
	}
	var v api.Venue
	if err := json.Unmarshal(data, &v); err != nil {
		return api.Venue{}, false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, v api.Venue) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(v.ID), data, c.ttl).Err(); err != nil {
		c.log.WithField("venue_id", v.ID).WithError(err).Warn("venues: redis set failed")
	}
}
