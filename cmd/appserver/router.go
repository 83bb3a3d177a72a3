package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/two-tier-relay/config"
	"github.com/angeloszaimis/two-tier-relay/internal/appserver"
	"github.com/angeloszaimis/two-tier-relay/internal/httpserver"
	"github.com/angeloszaimis/two-tier-relay/internal/metrics"
)

func setupRouter(ctx context.Context, cfg *config.Config, log *slog.Logger) (http.Handler, error) {
	routerCfg := httpserver.RouterConfig{Service: serviceName, Logger: log}

	if cfg.Metrics.Enabled {
		collector, reg, err := metrics.NewTelemetry(ctx, log)
		if err != nil {
			return nil, err
		}
		routerCfg.Collector = collector
		routerCfg.Gatherer = reg
	}

	r := httpserver.NewRouter(routerCfg)
	appserver.NewHandler(log).Register(r)

	return httpserver.Instrument(serviceName, r), nil
}
