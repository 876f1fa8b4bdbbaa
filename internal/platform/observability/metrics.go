package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "site"

// Metrics holds the Prometheus collectors of the site service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	slotQueries     *prometheus.CounterVec
	slotsAvailable  prometheus.Histogram
	seoDegradations *prometheus.CounterVec
	formSubmissions *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent serving HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "booking_slot_queries_total",
			Help:      "Slot availability queries by outcome.",
		}, []string{"outcome"}),
		slotsAvailable: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "booking_slots_available",
			Help:      "Number of free slots returned per successful query.",
			Buckets:   prometheus.LinearBuckets(0, 2, 9),
		}),
		seoDegradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "seo_degradations_total",
			Help:      "SEO generation steps that fell back to a minimal value.",
		}, []string{"page_type", "stage"}),
		formSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "form_submissions_total",
			Help:      "Contact, booking and CV download submissions by outcome.",
		}, []string{"form", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.slotQueries,
		m.slotsAvailable,
		m.seoDegradations,
		m.formSubmissions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests and custom exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	route = SanitizeRoute(route)
	m.httpRequests.WithLabelValues(SanitizeMethod(method), route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(latency.Seconds())
}

// SlotQuery records a slot availability query. available is ignored unless outcome is "ok".
func (m *Metrics) SlotQuery(outcome string, available int) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.slotsAvailable.Observe(float64(available))
	}
}

// SEODegraded records a fallback taken while generating SEO output.
func (m *Metrics) SEODegraded(pageType, stage string) {
	if m == nil {
		return
	}
	m.seoDegradations.WithLabelValues(pageType, stage).Inc()
}

// FormSubmission records a form outcome such as "ok", "invalid", "rate_limited" or "error".
func (m *Metrics) FormSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.formSubmissions.WithLabelValues(form, outcome).Inc()
}
