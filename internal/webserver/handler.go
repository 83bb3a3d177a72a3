// Package webserver implements the Web Server: the front-end that forwards
// each GET / to the App Server and relays the answer.
package webserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angeloszaimis/two-tier-relay/internal/httpserver"
	"github.com/angeloszaimis/two-tier-relay/internal/metrics"
	"github.com/angeloszaimis/two-tier-relay/internal/middleware"
	"github.com/angeloszaimis/two-tier-relay/internal/upstream"
)

const (
	ForwardedPrefix = "Forwarded to App Server: "
	ErrorPrefix     = "Error contacting App Server: "
	HealthyBody     = "Web server is healthy"
)

// Fetcher performs the call to the App Server.
type Fetcher interface {
	Fetch(ctx context.Context) (upstream.Result, error)
}

type Handler struct {
	logger   *slog.Logger
	upstream Fetcher
	events   metrics.Emitter
}

// NewHandler builds the Web Server handler. events may be nil.
func NewHandler(logger *slog.Logger, app Fetcher, events metrics.Emitter) *Handler {
	return &Handler{
		logger:   logger,
		upstream: app,
		events:   events,
	}
}

// Register mounts GET / and GET /health.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Forward)
	r.Get("/health", h.Health)
}

// Forward relays the App Server's answer. Failures of any kind are reported
// in the body with status 200.
func (h *Handler) Forward(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFromContext(r.Context())
	h.logger.Info("Request received on Web Server", slog.String("request_id", requestID))

	start := time.Now()
	res, err := h.upstream.Fetch(r.Context())
	if err != nil {
		h.logger.Warn("Error contacting App Server",
			slog.String("request_id", requestID),
			slog.String("kind", string(upstream.KindOf(err))),
			slog.Any("err", err))
		h.emit(string(upstream.KindOf(err)), time.Since(start))

		httpserver.WriteText(w, ErrorPrefix+err.Error())
		return
	}

	h.emit(metrics.OutcomeSuccess, res.Duration)
	httpserver.WriteText(w, ForwardedPrefix+res.Body)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteText(w, HealthyBody)
}

func (h *Handler) emit(outcome string, d time.Duration) {
	if h.events == nil {
		return
	}
	if outcome == "" {
		outcome = "error"
	}

	h.events.Emit(metrics.MetricEvent{
		Type:     metrics.EventUpstreamCompleted,
		Outcome:  outcome,
		Duration: d,
	})
}
