package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds the Prometheus collectors of the API process.
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	requests *prometheus.CounterVec
	denials  *prometheus.CounterVec
	taskOps  *prometheus.CounterVec

	// Gauges
	dependencyUp *prometheus.GaugeVec

	// Histograms
	duration *prometheus.HistogramVec
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdesk_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "method", "code"},
		),
		denials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdesk_auth_rejections_total",
				Help: "Requests rejected by authentication",
			},
			[]string{"reason"},
		),
		taskOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskdesk_task_operations_total",
				Help: "Task operations by outcome (ok, denied, not_found, invalid, unauthenticated, error)",
			},
			[]string{"operation", "outcome"},
		),
		dependencyUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskdesk_dependency_up",
				Help: "Dependency health (1 if the last probe succeeded, 0 otherwise)",
			},
			[]string{"dependency"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskdesk_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.denials,
		m.taskOps,
		m.dependencyUp,
		m.duration,
	)
	return m
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// AuthRejected counts a request refused by the auth middleware.
func (m *Metrics) AuthRejected(reason string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(reason).Inc()
}

// TaskOperation counts one finished task use-case call.
func (m *Metrics) TaskOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.taskOps.WithLabelValues(operation, outcome).Inc()
}

// SetDependency publishes the result of a health probe.
func (m *Metrics) SetDependency(name string, up bool) {
	if m == nil {
		return
	}
	value := 0.0
	if up {
		value = 1
	}
	m.dependencyUp.WithLabelValues(name).Set(value)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}),
	)
}
