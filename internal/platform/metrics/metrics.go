package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry's Prometheus metrics. Each instance owns its
// own registry so several routers can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	RequestDuration  *prometheus.HistogramVec
	MemberOperations *prometheus.CounterVec
	LoginAttempts    *prometheus.CounterVec
}

// New creates and registers all metrics, plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "member_registry_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		MemberOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "member_registry_member_operations_total",
			Help: "Member operations by kind and outcome",
		}, []string{"operation", "outcome"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "member_registry_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) CountMemberOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.MemberOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) CountLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}
