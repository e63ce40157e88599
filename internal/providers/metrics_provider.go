package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trwlexporter/internal/services"
	"trwlexporter/internal/structures"
)

// MetricsProviderInterface covers the exporter's own operational metrics.
// The check-in aggregates live in the domain registry, not here.
type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncUpstreamRequests(status int)
	ObservePollDuration(user string, duration time.Duration)
	IncPollFailures(user string, kind string)
	IncCacheHits()
	IncCacheMisses()
}

type MetricsProvider struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	pollDuration     *prometheus.HistogramVec
	pollFailures     *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncUpstreamRequests(status int) {
	m.upstreamRequests.WithLabelValues(httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObservePollDuration(user string, duration time.Duration) {
	m.pollDuration.WithLabelValues(user).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncPollFailures(user string, kind string) {
	m.pollFailures.WithLabelValues(user, kind).Inc()
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code <= 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, service services.ExporterServiceInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "exporter_http_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exporter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		upstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "traewelling_requests_total",
			Help: "HTTP requests sent to the Traewelling API",
		}, []string{"status"}),

		pollDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exporter_poll_duration_seconds",
			Help:    "Duration of one poll cycle in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"user"}),

		pollFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "exporter_poll_failures_total",
			Help: "Poll cycles aborted, by failure kind",
		}, []string{"user", "kind"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exporter_render_cache_hits_total",
			Help: "Total number of render cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "exporter_render_cache_misses_total",
			Help: "Total number of render cache misses",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "exporter_accounts_configured",
		Help: "Number of accounts this exporter polls",
	}, func() float64 {
		return float64(len(service.Accounts()))
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "exporter_accounts_errored",
		Help: "Number of accounts halted by a permanent upstream error",
	}, func() float64 {
		return float64(service.ErroredCount())
	})

	return m
}

// noopMetrics is a no-op implementation for when self-metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncUpstreamRequests(_ int)                        {}
func (n *noopMetrics) ObservePollDuration(_ string, _ time.Duration)    {}
func (n *noopMetrics) IncPollFailures(_ string, _ string)               {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
