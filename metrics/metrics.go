package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	ticketsIssued    *prometheus.CounterVec
	ticketsCheckedIn *prometheus.CounterVec
	rejections       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ticketsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued per tier",
		}, []string{"tier"}),
		ticketsCheckedIn: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_checked_in_total",
			Help: "Successful check-ins by verification path",
		}, []string{"path"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_verifications_rejected_total",
			Help: "Rejected verifications by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) TicketIssued(tier string) {
	if m == nil {
		return
	}
	m.ticketsIssued.WithLabelValues(tier).Inc()
}

func (m *Metrics) TicketCheckedIn(path string) {
	if m == nil {
		return
	}
	m.ticketsCheckedIn.WithLabelValues(path).Inc()
}

func (m *Metrics) VerificationRejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
