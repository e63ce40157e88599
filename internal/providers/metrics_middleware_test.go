package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingMetrics struct {
	endpoint  string
	status    int
	durations int
}

func (m *recordingMetrics) IncRequestsTotal(endpoint string, status int) {
	m.endpoint = endpoint
	m.status = status
}

func (m *recordingMetrics) ObserveRequestDuration(_ string, _ time.Duration) {
	m.durations++
}

func (m *recordingMetrics) IncUpstreamRequests(_ int)                      {}
func (m *recordingMetrics) ObservePollDuration(_ string, _ time.Duration) {}
func (m *recordingMetrics) IncPollFailures(_ string, _ string)            {}
func (m *recordingMetrics) IncCacheHits()                                 {}
func (m *recordingMetrics) IncCacheMisses()                               {}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	metrics := &recordingMetrics{}
	handler := MetricsMiddleware(metrics, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account", nil))

	assert.Equal(t, "/account", metrics.endpoint)
	assert.Equal(t, http.StatusNotFound, metrics.status)
	assert.Equal(t, 1, metrics.durations)
}

func TestMetricsMiddleware_FirstStatusWins(t *testing.T) {
	metrics := &recordingMetrics{}
	handler := MetricsMiddleware(metrics, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusServiceUnavailable, metrics.status)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsMiddleware_DefaultsToOK(t *testing.T) {
	metrics := &recordingMetrics{}
	handler := MetricsMiddleware(metrics, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, metrics.status)
}
