package httpserver_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/two-tier-relay/internal/httpserver"
)

var _ = Describe("HTTP Server", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	})

	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	Context("server creation", func() {
		It("creates server with valid address", func() {
			srv, err := httpserver.New("localhost:9999", noop, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("creates server on all interfaces", func() {
			srv, err := httpserver.New("0.0.0.0:5000", noop, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv.Addr()).To(Equal("0.0.0.0:5000"))
		})

		It("handles port-only address", func() {
			srv, err := httpserver.New(":9999", noop, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("rejects invalid address", func() {
			srv, err := httpserver.New("invalid:host:port", noop, log)
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})

		It("rejects address without port", func() {
			_, err := httpserver.New("localhost", noop, log)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("server lifecycle", func() {
		var testServer *httpserver.Server

		AfterEach(func() {
			if testServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = testServer.Shutdown(ctx)
			}
		})

		It("starts and handles requests", func() {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("test"))
			})
			var err error
			testServer, err = httpserver.New("127.0.0.1:0", handler, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(testServer.Listen()).To(Succeed())

			go testServer.Start()

			resp, err := http.Get("http://" + testServer.Addr())
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("test"))
		})

		It("fails to start on an address already in use", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			defer ln.Close()

			srv, err := httpserver.New(ln.Addr().String(), noop, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv.Start()).NotTo(Succeed())
		})

		It("shuts down gracefully", func() {
			var err error
			testServer, err = httpserver.New("127.0.0.1:0", noop, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(testServer.Listen()).To(Succeed())

			done := make(chan error, 1)
			go func() {
				done <- testServer.Start()
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			Expect(testServer.Shutdown(ctx)).To(Succeed())
			Eventually(done).Should(Receive(BeNil()))
		})
	})

	Context("Run", func() {
		It("returns nil after the context is cancelled", func() {
			srv, err := httpserver.New("127.0.0.1:0", noop, log)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- srv.Run(ctx)
			}()

			cancel()
			Eventually(done, 3*time.Second).Should(Receive(BeNil()))
		})

		It("returns the serve error", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			defer ln.Close()

			srv, err := httpserver.New(ln.Addr().String(), noop, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv.Run(context.Background())).NotTo(Succeed())
		})
	})
})
