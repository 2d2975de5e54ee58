package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	usersProvisioned   prometheus.Counter
	profileUpdates     *prometheus.CounterVec
	insightGenerations *prometheus.CounterVec
	insightGenDuration prometheus.Histogram
	insightRefreshes   *prometheus.CounterVec
}

func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed, by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		usersProvisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "users_provisioned_total",
			Help: "Local users created from the identity provider.",
		}),
		profileUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profile_updates_total",
			Help: "Profile update attempts by result.",
		}, []string{"result"}),
		insightGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "industry_insight_generations_total",
			Help: "AI insight generation calls by result.",
		}, []string{"result"}),
		insightGenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "industry_insight_generation_seconds",
			Help:    "AI insight generation latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		insightRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "industry_insight_refreshes_total",
			Help: "Scheduled insight refreshes by result.",
		}, []string{"result"}),
	}

	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.usersProvisioned,
		m.profileUpdates,
		m.insightGenerations,
		m.insightGenDuration,
		m.insightRefreshes,
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) UserProvisioned() {
	if m == nil {
		return
	}
	m.usersProvisioned.Inc()
}

func (m *Metrics) ProfileUpdate(err error) {
	if m == nil {
		return
	}
	m.profileUpdates.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) InsightGenerated(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.insightGenerations.WithLabelValues(result(err)).Inc()
	m.insightGenDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) InsightRefreshed(err error) {
	if m == nil {
		return
	}
	m.insightRefreshes.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
