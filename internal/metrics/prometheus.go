package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus mirrors collector events into Prometheus collectors.
type Prometheus struct {
	requestCount     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamUp       prometheus.Gauge
}

// NewPrometheus registers the relay collectors on reg. Registering twice on
// the same registry fails.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Duration of calls from the web server to the app server.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		upstreamUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "upstream_up",
				Help: "Whether the last app server health probe succeeded (1) or not (0).",
			},
		),
	}

	for _, c := range []prometheus.Collector{p.requestCount, p.upstreamDuration, p.upstreamUp} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Prometheus) observeRequest(method, route string, statusCode int) {
	if p == nil {
		return
	}
	p.requestCount.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
}

func (p *Prometheus) observeUpstream(outcome string, duration time.Duration) {
	if p == nil {
		return
	}
	p.upstreamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (p *Prometheus) setUpstreamUp(healthy bool) {
	if p == nil {
		return
	}
	if healthy {
		p.upstreamUp.Set(1)
	} else {
		p.upstreamUp.Set(0)
	}
}
