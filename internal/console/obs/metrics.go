package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the console's collectors and the registry they live in. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	transportRetries prometheus.Counter
	sessionsExpired  prometheus.Counter
	refreshesTotal   *prometheus.CounterVec
	sessionEvents    *prometheus.CounterVec
	buildInfo        *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "console_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),

		transportRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "console_transport_retries_total",
			Help: "Backend requests resent after a 401 with fresh credentials.",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "console_transport_session_expired_total",
			Help: "Backend requests failed because the session could not be refreshed.",
		}),
		refreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_session_refreshes_total",
			Help: "Refresh calls made to the backend, by outcome.",
		}, []string{"outcome"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_session_events_total",
			Help: "Session state transitions.",
		}, []string{"event"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "console_build_info",
			Help: "Console build information.",
		}, []string{"version"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.transportRetries, m.sessionsExpired, m.refreshesTotal, m.sessionEvents,
		m.buildInfo,
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// SetBuildInfo sets console_build_info{version} to 1.
func (m *Metrics) SetBuildInfo(version string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(version).Set(1)
}

// InstrumentRoute measures requests to a single route. route should be the
// mux pattern so label cardinality stays bounded.
func (m *Metrics) InstrumentRoute(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(route, status).Inc()
	})
}

// ObserveRetry counts a request resent after a 401.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.transportRetries.Inc()
}

// ObserveSessionExpired counts a request failed by an unrecoverable refresh.
func (m *Metrics) ObserveSessionExpired() {
	if m == nil {
		return
	}
	m.sessionsExpired.Inc()
}

// ObserveRefresh counts a refresh call by outcome.
func (m *Metrics) ObserveRefresh(ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.refreshesTotal.WithLabelValues(outcome).Inc()
}

// ObserveSessionEvent counts a session transition by name.
func (m *Metrics) ObserveSessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessionEvents.WithLabelValues(event).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
