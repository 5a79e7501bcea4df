// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReportsCreated counts reports filed by users.
	ReportsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyboard_reports_created_total",
		Help: "Total number of content reports filed",
	})

	// ReportReviews counts review decisions by outcome (approved, rejected, conflict).
	ReportReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyboard_report_reviews_total",
		Help: "Total number of report reviews by outcome",
	}, []string{"outcome"})

	// UsersDeleted counts accounts removed by administrators.
	UsersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyboard_users_deleted_total",
		Help: "Total number of user accounts deleted",
	})

	// CacheHits counts cache-aside hits by cache name.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyboard_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"cache"})

	// CacheMisses counts cache-aside misses by cache name.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyboard_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"cache"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyboard_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// UploadBytes records the size of accepted photo uploads.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storyboard_upload_bytes",
		Help:    "Size of accepted photo uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16<<10, 4, 7),
	})

	// ModerationSockets is the number of connected admin moderation feeds.
	ModerationSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storyboard_moderation_sockets",
		Help: "Number of connected admin moderation websockets",
	})

	// WebSocketDrops counts messages dropped for slow websocket clients.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyboard_websocket_dropped_messages_total",
		Help: "Total number of websocket messages dropped because a client buffer was full",
	})
)
