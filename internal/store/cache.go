package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/sitewise/chatrelay/internal/models"
)

// HistoryCache is a Redis-backed read-through cache for per-site message
// history. A nil *HistoryCache disables caching entirely.
type HistoryCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewHistoryCache builds a cache around an existing Redis client. Returns
// nil when client is nil so callers can wire it unconditionally.
func NewHistoryCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *HistoryCache {
	if client == nil {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}
	return &HistoryCache{client: client, ttl: ttl, log: log}
}

func historyKey(siteID string) string {
	return fmt.Sprintf("site:%s:history", siteID)
}

// Get returns the cached history for the site and whether it was present.
// Cache errors are logged and treated as misses.
func (c *HistoryCache) Get(ctx context.Context, siteID string) ([]models.Message, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, historyKey(siteID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("history cache read failed", "site_id", siteID, "err", err)
		}
		return nil, false
	}
	var messages []models.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		c.log.Warn("history cache entry corrupt, dropping", "site_id", siteID, "err", err)
		c.Invalidate(ctx, siteID)
		return nil, false
	}
	return messages, true
}

// Set stores the history for the site with the configured TTL.
func (c *HistoryCache) Set(ctx context.Context, siteID string, messages []models.Message) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		c.log.Warn("history cache encode failed", "site_id", siteID, "err", err)
		return
	}
	if err := c.client.Set(ctx, historyKey(siteID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("history cache write failed", "site_id", siteID, "err", err)
	}
}

// Invalidate drops the cached history for the site.
func (c *HistoryCache) Invalidate(ctx context.Context, siteID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, historyKey(siteID)).Err(); err != nil {
		c.log.Warn("history cache invalidate failed", "site_id", siteID, "err", err)
	}
}

// CachedMessageLog layers the history cache over the SQLite message log.
// Appends write through and invalidate; history reads are served from the
// cache when warm.
type CachedMessageLog struct {
	inner *Store
	cache *HistoryCache
}

// NewCachedMessageLog wraps the store with the cache. A nil cache yields a
// plain passthrough.
func NewCachedMessageLog(inner *Store, cache *HistoryCache) *CachedMessageLog {
	return &CachedMessageLog{inner: inner, cache: cache}
}

func (l *CachedMessageLog) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	stored, err := l.inner.Append(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	l.cache.Invalidate(ctx, msg.SiteID)
	return stored, nil
}

func (l *CachedMessageLog) ListBySite(ctx context.Context, siteID string) ([]models.Message, error) {
	if cached, ok := l.cache.Get(ctx, siteID); ok {
		return cached, nil
	}
	messages, err := l.inner.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	l.cache.Set(ctx, siteID, messages)
	return messages, nil
}
