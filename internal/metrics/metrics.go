// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commentwall_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commentwall_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	CommentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commentwall_comments_submitted_total",
		Help: "Comments stored, by posting mode.",
	}, []string{"mode"})

	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "commentwall_feed_subscribers",
		Help: "Open live feed WebSocket connections.",
	})
)
