package service

import (
	"context"
	"sync"
	"time"
)

// BannerFetcher loads a profile's banner image URL.
type BannerFetcher interface {
	FetchBannerURL(ctx context.Context, profileID string) (string, error)
}

// BannerCache keeps banner URLs for a fixed time per profile.
type BannerCache struct {
	fetch BannerFetcher
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]bannerEntry
}

type bannerEntry struct {
	url     string
	expires time.Time
}

// NewBannerCache creates a cache. now is injectable for tests; nil uses time.Now.
func NewBannerCache(fetch BannerFetcher, ttl time.Duration, now func() time.Time) *BannerCache {
	if now == nil {
		now = time.Now
	}
	return &BannerCache{
		fetch:   fetch,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]bannerEntry),
	}
}

// Get returns the banner URL of profileID, fetching it when the cached value
// is missing or expired. Fetch errors are not cached.
func (c *BannerCache) Get(ctx context.Context, profileID string) (string, error) {
	c.mu.Lock()
	e, ok := c.entries[profileID]
	now := c.now()
	if ok && now.Before(e.expires) {
		c.mu.Unlock()
		return e.url, nil
	}
	c.mu.Unlock()

	url, err := c.fetch.FetchBannerURL(ctx, profileID)
	if err != nil {
		return "", classify("fetch banner", err)
	}

	c.mu.Lock()
	c.entries[profileID] = bannerEntry{url: url, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return url, nil
}

// Purge drops expired entries.
func (c *BannerCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, id)
		}
	}
}
