package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
)

// RedisOptions configures the Redis cache
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key
	Prefix string
}

// Redis caches values in a Redis server. When the server cannot be reached
// at startup every Get is a miss and every Put is dropped.
type Redis struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

// NewRedis connects to Redis and degrades to a no-op cache when the ping fails
func NewRedis(opts RedisOptions, log *logger.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnf("Redis at %s unavailable, enrichment responses will not be cached: %v", opts.Addr, err)
		_ = client.Close()
		return &Redis{prefix: opts.Prefix, log: log}
	}

	return &Redis{client: client, prefix: opts.Prefix, log: log}
}

// Get returns the value stored under key
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	if r.client == nil {
		return nil, false
	}

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.log.Debugf("Redis get %s failed: %v", key, err)
		return nil, false
	}
	return data, true
}

// Put stores value under key for ttl
func (r *Redis) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if r.client == nil {
		return
	}

	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		r.log.Debugf("Redis set %s failed: %v", key, err)
	}
}

// IsAvailable returns true if the server answered the startup ping
func (r *Redis) IsAvailable() bool {
	return r.client != nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
