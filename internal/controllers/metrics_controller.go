package controllers

import (
	"net/http"

	"trwlexporter/internal/providers"
	"trwlexporter/internal/registry"
)

const renderCacheKey = "render"

// MetricsController serves the scrape endpoint. It is a pure read: a scrape
// never triggers a poll, and upstream failures never surface here.
type MetricsController struct {
	logger   providers.Logger
	registry registry.RegistryInterface
	cache    providers.CacheProviderInterface
	metrics  providers.MetricsProviderInterface
}

func NewMetricsController(logger providers.Logger, reg registry.RegistryInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface) *MetricsController {
	return &MetricsController{
		logger:   logger,
		registry: reg,
		cache:    cache,
		metrics:  metrics,
	}
}

func (mc *MetricsController) Scrape(w http.ResponseWriter, r *http.Request) {
	if data, ok := mc.cache.Get(renderCacheKey); ok {
		mc.metrics.IncCacheHits()
		mc.write(w, data)
		return
	}
	mc.metrics.IncCacheMisses()

	text, err := mc.registry.Render()
	if err != nil {
		// Render reads already-valid in-memory state; a failure here is a
		// programming invariant violation, not an upstream condition.
		mc.logger.Errorf(providers.TypeHTTP, "Render failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := []byte(text)
	mc.cache.Set(renderCacheKey, data)
	mc.write(w, data)
}

func (mc *MetricsController) write(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", mc.registry.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
