package appserver_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/two-tier-relay/internal/appserver"
)

var _ = Describe("Handler", func() {
	var (
		logs   bytes.Buffer
		router chi.Router
	)

	BeforeEach(func() {
		logs.Reset()
		log := slog.New(slog.NewTextHandler(&logs, nil))

		router = chi.NewRouter()
		appserver.NewHandler(log).Register(router)
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	Describe("GET /process", func() {
		It("should confirm processing", func() {
			w := get("/process")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("App Server Processed Request"))
			Expect(w.Header().Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
		})

		It("should write one informational log line per request", func() {
			get("/process")
			Expect(bytes.Count(logs.Bytes(), []byte("\n"))).To(Equal(1))
			Expect(logs.String()).To(ContainSubstring("level=INFO"))
			Expect(logs.String()).To(ContainSubstring("App Server processed a request"))
		})

		It("should answer identically when repeated", func() {
			for i := 0; i < 5; i++ {
				w := get("/process")
				Expect(w.Code).To(Equal(http.StatusOK))
				Expect(w.Body.String()).To(Equal(appserver.ProcessedBody))
			}
		})
	})

	Describe("GET /health", func() {
		It("should report healthy without logging", func() {
			w := get("/health")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("App server is healthy"))
			Expect(logs.Len()).To(BeZero())
		})
	})

	It("should not serve other paths", func() {
		Expect(get("/").Code).To(Equal(http.StatusNotFound))
	})
})
