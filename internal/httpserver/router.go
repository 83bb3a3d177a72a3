package httpserver

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/angeloszaimis/two-tier-relay/internal/metrics"
	"github.com/angeloszaimis/two-tier-relay/internal/middleware"
)

type RouterConfig struct {
	Service string
	Logger  *slog.Logger
	// Collector enables the metrics middleware and GET /stats when set.
	Collector *metrics.Collector
	// Gatherer enables GET /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter returns a chi router carrying the shared middleware stack and
// telemetry routes. Callers register their own routes on it and serve it
// through Instrument.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(cfg.Logger))

	if cfg.Collector != nil {
		r.Use(metrics.Middleware(cfg.Collector))
		r.Get("/stats", cfg.Collector.Handler(cfg.Service))
	}

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Instrument wraps h in an otelhttp server handler named after the service.
func Instrument(service string, h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, service)
}

// WriteText answers 200 with body as text/html, the content type both
// servers have always sent.
func WriteText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}
