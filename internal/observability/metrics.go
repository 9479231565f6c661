package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// PageCacheRequests counts page cache lookups by result (hit, miss, error).
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_page_cache_requests_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// PageCacheClears counts explicit page cache purges.
	PageCacheClears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_page_cache_clears_total",
		Help: "Total number of explicit page cache clears",
	})

	// FollowOperations counts follow graph mutations by action and outcome.
	FollowOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_follow_operations_total",
		Help: "Follow graph mutations by action and outcome",
	}, []string{"action", "outcome"})

	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_posts_created_total",
		Help: "Total number of posts created",
	})

	// CommentsCreated counts successfully created comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_comments_created_total",
		Help: "Total number of comments created",
	})

	// FeedQueryLatency records feed composition latency by feed kind.
	FeedQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postboard_feed_query_latency_seconds",
		Help:    "Feed composition latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})

	// WebSocketConnections is the gauge of open notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postboard_websocket_connections",
		Help: "Number of open notification WebSocket connections",
	})

	// NotificationsPublished counts realtime events published by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_notifications_published_total",
		Help: "Realtime notification events published",
	}, []string{"event_type"})
)
