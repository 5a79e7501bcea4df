package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storyboard/internal/middleware"
	"storyboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	feedGenerationKey = "feed:public:gen"
	feedPageKey       = "feed:public:g%d:%d:%d"
	// FeedCacheName labels feed cache metrics.
	FeedCacheName = "feed"
)

// FeedKey returns the cache key for one page of the public feed. Keys embed
// the feed generation so InvalidateFeed retires every page at once.
func FeedKey(ctx context.Context, limit, offset int) string {
	var gen int64
	if client != nil {
		v, err := client.Get(ctx, feedGenerationKey).Int64()
		if err == nil || errors.Is(err, redis.Nil) {
			gen = v
		}
	}
	return fmt.Sprintf(feedPageKey, gen, limit, offset)
}

// InvalidateFeed retires all cached feed pages. Old pages expire by TTL, so
// a failed bump leaves stale pages served until then.
func InvalidateFeed(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Incr(ctx, feedGenerationKey).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("feed_invalidate").Inc()
		middleware.Logger.WarnContext(ctx, "feed cache invalidation failed",
			slog.String("key", feedGenerationKey), slog.String("error", err.Error()))
	}
}
