package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sync_http_requests_total",
			Help: "Total number of HTTP requests processed by the messaging service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_sync_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	pollTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sync_poll_ticks_total",
			Help: "Total number of poll ticks by result.",
		},
		[]string{"result"},
	)
	messagesMergedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sync_messages_merged_total",
			Help: "Total number of messages inserted into the store by merges.",
		},
	)
	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sync_sends_total",
			Help: "Total number of send attempts by message type and result.",
		},
		[]string{"type", "result"},
	)
	activeWatchers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_sync_active_watchers",
			Help: "Number of running room watchers by transport.",
		},
		[]string{"transport"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_sync_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_sync_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sync_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		pollTicksTotal,
		messagesMergedTotal,
		sendsTotal,
		activeWatchers,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncPollTick(result string) {
	pollTicksTotal.WithLabelValues(result).Inc()
}

func AddMerged(n int) {
	if n > 0 {
		messagesMergedTotal.Add(float64(n))
	}
}

func IncSend(messageType, result string) {
	sendsTotal.WithLabelValues(messageType, result).Inc()
}

func IncWatcherActive(transport string) {
	activeWatchers.WithLabelValues(transport).Inc()
}

func DecWatcherActive(transport string) {
	activeWatchers.WithLabelValues(transport).Dec()
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
