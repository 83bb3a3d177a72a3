package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/two-tier-relay/config"
	"github.com/angeloszaimis/two-tier-relay/internal/circuitbreaker"
	"github.com/angeloszaimis/two-tier-relay/internal/healthcheck"
	"github.com/angeloszaimis/two-tier-relay/internal/httpserver"
	"github.com/angeloszaimis/two-tier-relay/internal/metrics"
	"github.com/angeloszaimis/two-tier-relay/internal/upstream"
	"github.com/angeloszaimis/two-tier-relay/internal/webserver"
)

const writeTimeoutMargin = 5 * time.Second

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

	client, err := newUpstreamClient(cfg, log)
	if err != nil {
		return nil, err
	}

	if interval := cfg.HealthInterval(); interval > 0 {
		go healthcheck.HealthCheck(ctx, client, interval, log, routerCfg.Collector)
	}

	r := httpserver.NewRouter(routerCfg)
	webserver.NewHandler(log, client, routerCfg.Collector).Register(r)

	return httpserver.Instrument(serviceName, r), nil
}

func newUpstreamClient(cfg *config.Config, log *slog.Logger) (*upstream.Client, error) {
	var breaker *circuitbreaker.Breaker
	if cfg.Upstream.Breaker.Threshold > 0 {
		breaker = circuitbreaker.New(cfg.Upstream.Breaker.Threshold, cfg.BreakerResetTimeout(),
			circuitbreaker.WithStateChange(func(from, to circuitbreaker.State) {
				log.Warn("App server circuit breaker changed state",
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}))
	}

	client, err := upstream.New(upstream.Options{
		BaseURL: cfg.Upstream.URL,
		Timeout: cfg.UpstreamTimeout(),
		Breaker: breaker,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Forwarding to app server",
		slog.String("url", client.URL().String()),
		slog.Duration("timeout", cfg.UpstreamTimeout()),
		slog.Bool("circuit_breaker", breaker != nil))

	return client, nil
}
