package registry

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"trwlexporter/internal/services"
)

type RegistryInterface interface {
	Render() (string, error)
	ContentType() string
}

// Registry owns the domain metric registry and renders it, together with the
// exporter's self-metrics from the default registry, into the text
// exposition format. Gather sorts families and series, so identical state
// always renders identical text.
type Registry struct {
	gatherers prometheus.Gatherers
	format    expfmt.Format
}

func NewRegistry(service services.ExporterServiceInterface) (RegistryInterface, error) {
	domain := prometheus.NewRegistry()
	if err := domain.Register(NewCollector(service)); err != nil {
		return nil, fmt.Errorf("register domain collector: %w", err)
	}
	return &Registry{
		gatherers: prometheus.Gatherers{domain, prometheus.DefaultGatherer},
		format:    expfmt.NewFormat(expfmt.TypeTextPlain),
	}, nil
}

func (r *Registry) Render() (string, error) {
	mfs, err := r.gatherers.Gather()
	if err != nil {
		return "", fmt.Errorf("gather: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, r.format)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return "", fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return buf.String(), nil
}

func (r *Registry) ContentType() string {
	return string(r.format)
}
