// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation. Metrics() measures HTTP
// traffic with bounded label cardinality:
//
//   - method: HTTP method verb
//   - path:   the registered Gin route (e.g. /api/enter/:id), or "unmatched"
//     when no route matched, so scanners cannot blow up the series count
//   - status: numeric status code as a string
//
// Domain counters (entries, winners, logins, limiter rejections) are
// recorded through the Observe* helpers by handlers and limiters.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedPath labels requests that hit no registered route.
const unmatchedPath = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
				1 << 20,
			},
		},
		[]string{"method", "path"},
	)

	entriesSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giveaway_entries_submitted_total",
			Help: "Entry submissions by outcome (accepted, duplicate, unavailable, error).",
		},
		[]string{"result"},
	)

	winnersPicked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giveaway_winner_picks_total",
			Help: "Winner selections by outcome (picked, no_entries, completed, not_found, error).",
		},
		[]string{"result"},
	)

	adminLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_logins_total",
			Help: "Admin login attempts by outcome (success, missing, invalid, error).",
		},
		[]string{"result"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		},
		[]string{"limiter"},
	)
)

func init() {
	prometheus.MustRegister(
		httpReqs, httpLat, httpInflight, httpRespSize,
		entriesSubmitted, winnersPicked, adminLogins, rateLimited,
	)
}

// ObserveEntry counts one entry submission with the given outcome.
func ObserveEntry(result string) { entriesSubmitted.WithLabelValues(result).Inc() }

// ObserveWinnerPick counts one winner selection with the given outcome.
func ObserveWinnerPick(result string) { winnersPicked.WithLabelValues(result).Inc() }

// ObserveLogin counts one admin login attempt with the given outcome.
func ObserveLogin(result string) { adminLogins.WithLabelValues(result).Inc() }

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// -1 when nothing was written
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
