package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Engagement event labels.
const (
	EventLike     = "like"
	EventUnlike   = "unlike"
	EventView     = "view"
	EventComment  = "comment"
	EventBookmark = "bookmark"
)

// Metrics holds the Prometheus collectors for the HTTP surface and engagement.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	EngagementEvents *prometheus.CounterVec

	// live notification subscriptions held by workspaces
	ActiveFeeds prometheus.Gauge
}

// Get returns the process-wide collectors, registering them on first use.
//
// Metrics:
//   - http_requests_total{route,status}
//   - http_request_duration_seconds{route}
//   - engagement_events_total{event}
//   - notification_feeds_active
func Get() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests served",
				},
				[]string{"route", "status"},
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route"},
			),
			EngagementEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engagement_events_total",
					Help: "Total number of engagement events recorded",
				},
				[]string{"event"},
			),
			ActiveFeeds: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "notification_feeds_active",
					Help: "Number of live notification subscriptions",
				},
			),
		}
	})
	return globalMetrics
}

func RecordEngagement(event string) {
	Get().EngagementEvents.WithLabelValues(event).Inc()
}
