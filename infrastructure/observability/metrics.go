// Package observability exposes Prometheus metrics for the HTTP surface and
// for domain events flowing through the in-process bus.
package observability

import (
	"context"
	"strconv"
	"time"

	"fanpool/events"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fanpool"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

// Domain metrics
var (
	StakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stakes_total",
			Help:      "Stakes by lifecycle transition",
		},
		[]string{"transition"},
	)

	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Access token scans by outcome",
		},
		[]string{"outcome"},
	)

	PerkAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "perk_allocations_total",
			Help:      "Party perk allocations by status",
		},
		[]string{"status"},
	)

	PoolInjectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_injections_total",
			Help:      "Completed pool injections",
		},
	)

	RewardsPaidTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_paid_total",
			Help:      "Sum of final rewards credited, in pool currency",
		},
	)

	FeesCollectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_collected_total",
			Help:      "Sum of distribution fees withheld, in pool currency",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement passes by whether the event completed",
		},
		[]string{"completed"},
	)
)

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// GinMiddleware records request count and latency per route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RegisterEventMetrics counts committed domain events
func RegisterEventMetrics(bus *events.Bus) {
	bus.SubscribeAll(recordEvent)
}

func recordEvent(_ context.Context, event events.Event) {
	switch e := event.(type) {
	case events.StakeCreatedEvent:
		StakesTotal.WithLabelValues("created").Inc()
	case events.StakeCancelledEvent:
		StakesTotal.WithLabelValues("cancelled").Inc()
	case events.StakeSettledEvent:
		StakesTotal.WithLabelValues("settled").Inc()
		RewardsPaidTotal.Add(e.FinalReward.InexactFloat64())
		FeesCollectedTotal.Add(e.FeeAmount.InexactFloat64())
	case events.ParticipationRecordedEvent:
		ScansTotal.WithLabelValues("success").Inc()
		PerkAllocationsTotal.WithLabelValues(string(e.PerkStatus)).Inc()
	case events.ScanRejectedEvent:
		ScansTotal.WithLabelValues(string(e.Outcome)).Inc()
	case events.PoolInjectedEvent:
		PoolInjectionsTotal.Inc()
	case events.EventSettledEvent:
		SettlementsTotal.WithLabelValues(strconv.FormatBool(e.EventCompleted)).Inc()
	}
}
