package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const defaultBufferSize = 1000

// NewTelemetry returns a started collector mirrored into a fresh Prometheus
// registry that also carries the Go runtime and process collectors.
func NewTelemetry(ctx context.Context, logger *slog.Logger) (*Collector, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, nil, err
	}

	prom, err := NewPrometheus(reg)
	if err != nil {
		return nil, nil, err
	}

	collector := NewCollector(defaultBufferSize, logger, prom)
	collector.Start(ctx)

	return collector, reg, nil
}
