package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trwlexporter/internal/testutil"
)

type mockRegistry struct {
	text    string
	err     error
	renders int
}

func (m *mockRegistry) Render() (string, error) {
	m.renders++
	return m.text, m.err
}

func (m *mockRegistry) ContentType() string {
	return "text/plain; version=0.0.4; charset=utf-8; escaping=underscores"
}

type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Get(key string) ([]byte, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mapCache) Set(key string, value []byte) {
	m.data[key] = value
}

func TestScrape_RendersAndCaches(t *testing.T) {
	reg := &mockRegistry{text: "traewelling_checkins_total{user=\"alice\"} 2\n"}
	metrics := &testutil.MockMetrics{}
	mc := NewMetricsController(&testutil.MockLogger{}, reg, newMapCache(), metrics)

	rec := httptest.NewRecorder()
	mc.Scrape(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reg.ContentType(), rec.Header().Get("Content-Type"))
	assert.Equal(t, reg.text, rec.Body.String())
	assert.Equal(t, 1, metrics.CacheMisses)

	// Second scrape inside the TTL is served from cache, no re-render.
	rec = httptest.NewRecorder()
	mc.Scrape(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reg.text, rec.Body.String())
	assert.Equal(t, 1, reg.renders)
	assert.Equal(t, 1, metrics.CacheHits)
}

func TestScrape_RenderError(t *testing.T) {
	reg := &mockRegistry{err: errors.New("gather failed")}
	logger := &testutil.MockLogger{}
	mc := NewMetricsController(logger, reg, newMapCache(), &testutil.MockMetrics{})

	rec := httptest.NewRecorder()
	mc.Scrape(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotEmpty(t, logger.Logs)
	assert.Equal(t, "error", logger.Logs[0].Level)
}
