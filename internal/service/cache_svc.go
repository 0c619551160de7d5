package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// DefaultFeedCacheTTL is used when no TTL is configured.
const DefaultFeedCacheTTL = 2 * time.Minute

// FeedCache is a Redis cache-aside layer for merged feeds. A FeedCache
// without a client (or a nil *FeedCache) turns every operation into a no-op.
type FeedCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFeedCache connects to redisURL. If the URL is empty or the connection
// fails, caching is disabled rather than failing startup.
func NewFeedCache(redisURL string, ttl time.Duration, logger zerolog.Logger) *FeedCache {
	log := logger.With().Str("component", "feed-cache").Logger()
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &FeedCache{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &FeedCache{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &FeedCache{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return NewFeedCacheFromClient(rdb, ttl)
}

// NewFeedCacheFromClient wraps an existing client.
func NewFeedCacheFromClient(rdb *redis.Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = DefaultFeedCacheTTL
	}
	return &FeedCache{rdb: rdb, ttl: ttl}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *FeedCache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Get returns the cached feed stored under key.
func (c *FeedCache) Get(ctx context.Context, key string) ([]model.ContentItem, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []model.ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, err
	}
	metrics.CacheHits.Inc()
	return items, true, nil
}

// Set stores a feed under key.
func (c *FeedCache) Set(ctx context.Context, key string, items []model.ContentItem) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Invalidate removes key from the cache.
func (c *FeedCache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, key).Err()
}

// Close shuts down the Redis connection.
func (c *FeedCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
