package httpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angeloszaimis/two-tier-relay/internal/httpserver"
	"github.com/angeloszaimis/two-tier-relay/internal/metrics"
	"github.com/angeloszaimis/two-tier-relay/internal/middleware"
)

var _ = Describe("Router", func() {
	var (
		log    *slog.Logger
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	serve := func(h http.Handler, method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	It("should set a request id on every response", func() {
		r := httpserver.NewRouter(httpserver.RouterConfig{Service: "test", Logger: log})
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {})

		w := serve(r, http.MethodGet, "/ping")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
	})

	It("should recover from handler panics", func() {
		r := httpserver.NewRouter(httpserver.RouterConfig{Service: "test", Logger: log})
		r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		Expect(serve(r, http.MethodGet, "/panic").Code).To(Equal(http.StatusInternalServerError))
	})

	It("should answer 405 for a known path with the wrong method", func() {
		r := httpserver.NewRouter(httpserver.RouterConfig{Service: "test", Logger: log})
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {})

		Expect(serve(r, http.MethodPost, "/ping").Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(serve(r, http.MethodGet, "/nowhere").Code).To(Equal(http.StatusNotFound))
	})

	It("should not expose telemetry routes when disabled", func() {
		r := httpserver.NewRouter(httpserver.RouterConfig{Service: "test", Logger: log})

		Expect(serve(r, http.MethodGet, "/metrics").Code).To(Equal(http.StatusNotFound))
		Expect(serve(r, http.MethodGet, "/stats").Code).To(Equal(http.StatusNotFound))
	})

	It("should expose /stats and /metrics when enabled", func() {
		reg := prometheus.NewRegistry()
		prom, err := metrics.NewPrometheus(reg)
		Expect(err).NotTo(HaveOccurred())

		collector := metrics.NewCollector(100, log, prom)
		collector.Start(ctx)

		r := httpserver.NewRouter(httpserver.RouterConfig{
			Service:   "test",
			Logger:    log,
			Collector: collector,
			Gatherer:  reg,
		})
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {})
		h := httpserver.Instrument("test", r)

		Expect(serve(h, http.MethodGet, "/ping").Code).To(Equal(http.StatusOK))

		Eventually(func() string {
			return serve(h, http.MethodGet, "/metrics").Body.String()
		}).Should(ContainSubstring(`http_requests_total{method="GET",path="/ping",status="200"} 1`))

		var snap metrics.Snapshot
		Expect(json.Unmarshal(serve(h, http.MethodGet, "/stats").Body.Bytes(), &snap)).To(Succeed())
		Expect(snap.Service).To(Equal("test"))
		Expect(snap.Routes).To(HaveKey("GET /ping"))
	})

	It("should count unknown paths under a single route label", func() {
		reg := prometheus.NewRegistry()
		prom, err := metrics.NewPrometheus(reg)
		Expect(err).NotTo(HaveOccurred())

		collector := metrics.NewCollector(100, log, prom)
		collector.Start(ctx)

		r := httpserver.NewRouter(httpserver.RouterConfig{
			Service:   "test",
			Logger:    log,
			Collector: collector,
			Gatherer:  reg,
		})

		for i := 0; i < 20; i++ {
			Expect(serve(r, http.MethodGet, fmt.Sprintf("/junk-%d", i)).Code).To(Equal(http.StatusNotFound))
		}

		Eventually(func() string {
			return serve(r, http.MethodGet, "/metrics").Body.String()
		}).Should(ContainSubstring(`http_requests_total{method="GET",path="unmatched",status="404"} 20`))

		body := serve(r, http.MethodGet, "/metrics").Body.String()
		Expect(body).NotTo(ContainSubstring("/junk-"))

		var snap metrics.Snapshot
		Expect(json.Unmarshal(serve(r, http.MethodGet, "/stats").Body.Bytes(), &snap)).To(Succeed())
		Expect(snap.Routes).To(HaveKey("GET unmatched"))
		Expect(snap.Routes).NotTo(HaveKey("GET /junk-0"))
	})
})

var _ = Describe("WriteText", func() {
	It("should answer 200 with an html text body", func() {
		w := httptest.NewRecorder()
		httpserver.WriteText(w, "App server is healthy")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
		Expect(w.Body.String()).To(Equal("App server is healthy"))
	})
})
