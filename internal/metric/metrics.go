package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calendar sync outcomes recorded on calendar_sync_total.
const (
	SyncCreated           = "created"
	SyncFailed            = "failed"
	SyncColorUpdated      = "color_updated"
	SyncColorUpdateFailed = "color_update_failed"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of HTTP requests processed, labeled by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_latency_seconds",
			Help:    "Histogram of request latencies labeled by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TasksCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasks_count",
			Help: "Current number of tasks in the database",
		},
	)

	CalendarSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_sync_total",
			Help: "Calendar mirroring attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// InitMetrics registers the Prometheus metrics. Call once at program startup.
func InitMetrics() {
	prometheus.MustRegister(RequestsTotal, RequestLatency, TasksCount, CalendarSyncTotal)
}

// PrometheusMiddleware returns a Gin middleware that instruments requests.
// It records request count and latency (method + path + status labels).
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next() // process request
		duration := time.Since(start).Seconds()

		status := strconv.Itoa(c.Writer.Status())
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		RequestLatency.WithLabelValues(c.Request.Method, route).Observe(duration)
	}
}

// PromhttpHandler returns the standard promhttp handler to expose /metrics.
func PromhttpHandler() http.Handler {
	return promhttp.Handler()
}

// SetTasksCount sets the tasks_count gauge to the provided value.
func SetTasksCount(n int) {
	TasksCount.Set(float64(n))
}

// IncTaskCount increments the tasks_count gauge by 1.
func IncTaskCount() {
	TasksCount.Add(1)
}

// DecTaskCount decrements the tasks_count gauge by 1.
func DecTaskCount() {
	TasksCount.Sub(1)
}

// ObserveCalendarSync records one calendar mirroring outcome.
func ObserveCalendarSync(outcome string) {
	CalendarSyncTotal.WithLabelValues(outcome).Inc()
}
