package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "canctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	busFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canctl",
			Subsystem: "bus",
			Name:      "frames_total",
			Help:      "Frames moved across a bus.",
		},
		[]string{"bus", "direction"},
	)
	busErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canctl",
			Subsystem: "bus",
			Name:      "errors_total",
			Help:      "Bus operations that failed.",
		},
		[]string{"bus", "op"},
	)
	bridgePublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "canctl",
			Subsystem: "bridge",
			Name:      "publishes_total",
			Help:      "Bridge publishes by direction and outcome.",
		},
		[]string{"direction", "result"},
	)
	bridgeHandleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "canctl",
			Subsystem: "bridge",
			Name:      "handle_duration_seconds",
			Help:      "Time spent converting and forwarding one message.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			busFrames,
			busErrors,
			bridgePublishes,
			bridgeHandleDuration,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordBusFrame(bus, direction string) {
	RegisterMetrics()
	busFrames.WithLabelValues(bus, direction).Inc()
}

func RecordBusError(bus, op string) {
	RegisterMetrics()
	busErrors.WithLabelValues(bus, op).Inc()
}

func RecordBridgePublish(direction string, success bool) {
	RegisterMetrics()
	bridgePublishes.WithLabelValues(direction, strconv.FormatBool(success)).Inc()
}

func ObserveBridgeHandle(direction string, duration time.Duration) {
	RegisterMetrics()
	bridgeHandleDuration.WithLabelValues(direction).Observe(duration.Seconds())
}
