package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/two-tier-relay/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("RecordRequest", func() {
		It("should count requests per route and status", func() {
			m.RecordRequest("GET", "/", 200)
			m.RecordRequest("GET", "/", 200)
			m.RecordRequest("GET", "/health", 200)
			m.RecordRequest("POST", "/", 405)

			snap := m.Snapshot("web-server")
			Expect(snap.Service).To(Equal("web-server"))
			Expect(snap.TotalRequests).To(Equal(int64(4)))
			Expect(snap.Routes).To(HaveKeyWithValue("GET /", int64(2)))
			Expect(snap.Routes).To(HaveKeyWithValue("GET /health", int64(1)))
			Expect(snap.StatusCodes).To(HaveKeyWithValue(200, int64(3)))
			Expect(snap.StatusCodes).To(HaveKeyWithValue(405, int64(1)))
		})

		It("should omit upstream metrics when no call was made", func() {
			m.RecordRequest("GET", "/process", 200)
			Expect(m.Snapshot("app-server").Upstream).To(BeNil())
		})
	})

	Describe("RecordUpstreamCall", func() {
		It("should count outcomes and average latency", func() {
			m.RecordUpstreamCall(metrics.OutcomeSuccess, 100*time.Millisecond)
			m.RecordUpstreamCall(metrics.OutcomeSuccess, 200*time.Millisecond)
			m.RecordUpstreamCall("unreachable", 300*time.Millisecond)

			up := m.Snapshot("web-server").Upstream
			Expect(up).NotTo(BeNil())
			Expect(up.Calls).To(Equal(int64(3)))
			Expect(up.Outcomes).To(HaveKeyWithValue(metrics.OutcomeSuccess, int64(2)))
			Expect(up.Outcomes).To(HaveKeyWithValue("unreachable", int64(1)))
			Expect(up.AvgResponse).To(Equal(200 * time.Millisecond))
			Expect(up.Healthy).To(BeNil())
		})

		It("should calculate percentiles correctly", func() {
			for i := 1; i <= 100; i++ {
				m.RecordUpstreamCall(metrics.OutcomeSuccess, time.Duration(i)*time.Millisecond)
			}

			up := m.Snapshot("web-server").Upstream
			Expect(up.P50Response).To(BeNumerically("~", 50*time.Millisecond, time.Millisecond))
			Expect(up.P95Response).To(BeNumerically("~", 95*time.Millisecond, time.Millisecond))
			Expect(up.P99Response).To(BeNumerically("~", 99*time.Millisecond, time.Millisecond))
		})

		It("should keep only the most recent samples", func() {
			for i := 1; i <= 1500; i++ {
				m.RecordUpstreamCall(metrics.OutcomeSuccess, time.Duration(i)*time.Millisecond)
			}

			up := m.Snapshot("web-server").Upstream
			Expect(up.Calls).To(Equal(int64(1500)))
			Expect(up.AvgResponse).To(BeNumerically(">", 500*time.Millisecond))
		})
	})

	Describe("UpdateUpstreamHealth", func() {
		It("should report the latest health status", func() {
			m.UpdateUpstreamHealth(false)
			up := m.Snapshot("web-server").Upstream
			Expect(up).NotTo(BeNil())
			Expect(*up.Healthy).To(BeFalse())

			m.UpdateUpstreamHealth(true)
			Expect(*m.Snapshot("web-server").Upstream.Healthy).To(BeTrue())
		})
	})

	Describe("Snapshot", func() {
		It("should not share maps with the store", func() {
			m.RecordRequest("GET", "/", 200)
			snap := m.Snapshot("web-server")
			snap.Routes["GET /"] = 99

			Expect(m.Snapshot("web-server").Routes).To(HaveKeyWithValue("GET /", int64(1)))
		})
	})
})
