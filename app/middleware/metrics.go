package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// CampaignsProcessedTotal counts broadcast processing passes by outcome
	CampaignsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_processed_total",
			Help: "Total number of campaign processing passes by outcome",
		},
		[]string{"outcome"},
	)

	// RecipientsMaterializedTotal counts recipient rows created by processing
	RecipientsMaterializedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_recipients_materialized_total",
			Help: "Total number of campaign recipient rows materialized",
		},
	)

	// CampaignProcessingDuration observes how long one processing pass takes
	CampaignProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_processing_duration_seconds",
			Help:    "Campaign processing pass latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}
