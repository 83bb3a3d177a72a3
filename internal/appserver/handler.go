// Package appserver implements the App Server: the back-end that performs
// the processing work requested by the Web Server.
package appserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angeloszaimis/two-tier-relay/internal/httpserver"
	"github.com/angeloszaimis/two-tier-relay/internal/middleware"
)

const (
	ProcessedBody = "App Server Processed Request"
	HealthyBody   = "App server is healthy"
)

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Register mounts GET /process and GET /health.
func (h *Handler) Register(r chi.Router) {
	r.Get("/process", h.Process)
	r.Get("/health", h.Health)
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("App Server processed a request",
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())))

	httpserver.WriteText(w, ProcessedBody)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteText(w, HealthyBody)
}
