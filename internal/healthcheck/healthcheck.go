package healthcheck

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/angeloszaimis/two-tier-relay/internal/metrics"
)

// Target is something that can be probed and remembers its health.
type Target interface {
	Probe(ctx context.Context) error
	SetHealthy(healthy bool) (changed bool)
	URL() *url.URL
}

// HealthCheck probes target every interval until ctx is done. The first
// probe runs immediately so the status is known right after startup.
func HealthCheck(
	ctx context.Context,
	target Target,
	interval time.Duration,
	logger *slog.Logger,
	events metrics.Emitter,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check(ctx, target, logger, events, true)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("server", target.URL().String()))
			return

		case <-ticker.C:
			check(ctx, target, logger, events, false)
		}
	}
}

func check(ctx context.Context, target Target, logger *slog.Logger, events metrics.Emitter, first bool) {
	err := target.Probe(ctx)
	if ctx.Err() != nil {
		return
	}

	healthy := err == nil
	changed := target.SetHealthy(healthy)

	if changed || first {
		events.Emit(metrics.MetricEvent{
			Type:    metrics.EventHealthChanged,
			Healthy: healthy,
		})
	}

	if !changed {
		return
	}

	if healthy {
		logger.Info("App server is back up",
			slog.String("server", target.URL().String()))
	} else {
		logger.Warn("App server is down",
			slog.String("server", target.URL().String()),
			slog.Any("err", err))
	}
}
