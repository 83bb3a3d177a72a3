// Package metrics collects request and upstream metrics for both servers.
//
// Events are sent over a buffered channel with non-blocking semantics and
// processed by a single collector goroutine, so the request path never waits
// on metrics. The collector keeps:
//   - Request counts per route and status code
//   - Upstream call outcomes (success, timeout, unreachable, status, ...)
//   - Upstream latency with percentile calculations (P50, P95, P99)
//   - Upstream health as seen by the health monitor
//
// When a Prometheus recorder is attached, every event is mirrored into
// Prometheus collectors served on /metrics; the in-memory snapshot is served
// as JSON on /stats.
//
// Example usage:
//
//	prom, _ := metrics.NewPrometheus(prometheus.DefaultRegisterer)
//	collector := metrics.NewCollector(1000, logger, prom)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventUpstreamCompleted,
//		Outcome:  metrics.OutcomeSuccess,
//		Duration: 15 * time.Millisecond,
//	})
//
//	snapshot := collector.Snapshot("web-server")
package metrics
