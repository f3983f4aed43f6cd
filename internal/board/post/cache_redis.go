// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package post

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/constants"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/pagination"
)

// feedCacheTTL keeps cached feed pages short-lived. Invalidation on writes
// handles the common case; the TTL bounds staleness after missed
// invalidations (e.g. a concurrent deploy).
const feedCacheTTL = 60 * time.Second

// feedKey derives the cache key for one public feed page.
func feedKey(filter Filter, page pagination.Params) string {
	return fmt.Sprintf("%st=%s|s=%s|p=%d|l=%d",
		constants.RedisPrefixPostFeed, filter.Type, filter.Status, page.Page, page.Limit)
}

type cachedFeedPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

// RedisFeedCache implements [FeedCache] on Redis. Every failure is
// swallowed after logging: a broken cache degrades to direct store reads.
type RedisFeedCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisFeedCache creates the cache on the given client.
func NewRedisFeedCache(client *redis.Client, logger *slog.Logger) *RedisFeedCache {
	return &RedisFeedCache{
		client: client,
		logger: logger.With(slog.String("component", "post_feed_cache")),
	}
}

// GetFeed implements [FeedCache].
func (cache *RedisFeedCache) GetFeed(ctx context.Context, key string) ([]Post, int, bool) {
	payload, err := cache.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			cache.logger.WarnContext(ctx, "feed cache read failed", slog.String("error", err.Error()))
		}
		return nil, 0, false
	}

	var page cachedFeedPage
	if err := json.Unmarshal(payload, &page); err != nil {
		cache.logger.WarnContext(ctx, "feed cache entry corrupt", slog.String("key", key))
		return nil, 0, false
	}
	return page.Posts, page.Total, true
}

// SetFeed implements [FeedCache].
func (cache *RedisFeedCache) SetFeed(ctx context.Context, key string, posts []Post, total int) {
	payload, err := json.Marshal(cachedFeedPage{Posts: posts, Total: total})
	if err != nil {
		return
	}
	if err := cache.client.Set(ctx, key, payload, feedCacheTTL).Err(); err != nil {
		cache.logger.WarnContext(ctx, "feed cache write failed", slog.String("error", err.Error()))
	}
}

// Invalidate implements [FeedCache]. It drops every cached feed page.
func (cache *RedisFeedCache) Invalidate(ctx context.Context) {
	iter := cache.client.Scan(ctx, 0, constants.RedisPrefixPostFeed+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		cache.logger.WarnContext(ctx, "feed cache scan failed", slog.String("error", err.Error()))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := cache.client.Del(ctx, keys...).Err(); err != nil {
		cache.logger.WarnContext(ctx, "feed cache invalidation failed", slog.String("error", err.Error()))
	}
}
