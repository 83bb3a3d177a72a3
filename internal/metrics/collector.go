package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestCompleted  EventType = "request_completed"
	EventUpstreamCompleted EventType = "upstream_completed"
	EventHealthChanged     EventType = "health_changed"
)

// OutcomeSuccess labels a successful upstream call. Failed calls use the
// upstream error kind as outcome.
const OutcomeSuccess = "success"

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Method     string
	Route      string
	StatusCode int
	Duration   time.Duration
	Outcome    string
	Healthy    bool
}

// Emitter accepts metric events without blocking.
type Emitter interface {
	Emit(event MetricEvent)
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	prom    *Prometheus
	logger  *slog.Logger
}

// NewCollector creates a collector with the given channel buffer. prom may be
// nil when Prometheus export is disabled.
func NewCollector(bufferSize int, logger *slog.Logger, prom *Prometheus) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		prom:    prom,
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit queues an event, dropping it when the buffer is full. A nil collector
// ignores events.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestCompleted:
		c.metrics.RecordRequest(event.Method, event.Route, event.StatusCode)
		c.prom.observeRequest(event.Method, event.Route, event.StatusCode)

	case EventUpstreamCompleted:
		c.metrics.RecordUpstreamCall(event.Outcome, event.Duration)
		c.prom.observeUpstream(event.Outcome, event.Duration)

	case EventHealthChanged:
		c.metrics.UpdateUpstreamHealth(event.Healthy)
		c.prom.setUpstreamUp(event.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(service string) Snapshot {
	return c.metrics.Snapshot(service)
}
