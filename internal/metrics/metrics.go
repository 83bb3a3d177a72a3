package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxUpstreamSamples = 1000

type Metrics struct {
	mutex          sync.RWMutex
	requests       map[string]int64
	statusCodes    map[int]int64
	upstreamCalls  map[string]int64
	upstreamTimes  []time.Duration
	healthKnown    bool
	upstreamHealth bool
	startTime      time.Time
}

type Snapshot struct {
	Service       string           `json:"service"`
	TotalRequests int64            `json:"total_requests"`
	Uptime        time.Duration    `json:"uptime"`
	Routes        map[string]int64 `json:"routes"`
	StatusCodes   map[int]int64    `json:"status_codes"`
	Upstream      *UpstreamMetrics `json:"upstream,omitempty"`
}

type UpstreamMetrics struct {
	Calls       int64            `json:"calls"`
	Outcomes    map[string]int64 `json:"outcomes"`
	Healthy     *bool            `json:"healthy,omitempty"`
	AvgResponse time.Duration    `json:"avg_response"`
	P50Response time.Duration    `json:"p50_response"`
	P95Response time.Duration    `json:"p95_response"`
	P99Response time.Duration    `json:"p99_response"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		statusCodes:   make(map[int]int64),
		upstreamCalls: make(map[string]int64),
		startTime:     time.Now(),
	}
}

// RecordRequest counts one served request under "METHOD route".
func (m *Metrics) RecordRequest(method, route string, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.requests[method+" "+route]++
	m.statusCodes[statusCode]++
}

func (m *Metrics) RecordUpstreamCall(outcome string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.upstreamCalls[outcome]++

	m.upstreamTimes = append(m.upstreamTimes, duration)
	if len(m.upstreamTimes) > maxUpstreamSamples {
		m.upstreamTimes = m.upstreamTimes[1:]
	}
}

func (m *Metrics) UpdateUpstreamHealth(healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.healthKnown = true
	m.upstreamHealth = healthy
}

func (m *Metrics) Snapshot(service string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Service:     service,
		Uptime:      time.Since(m.startTime),
		Routes:      make(map[string]int64, len(m.requests)),
		StatusCodes: make(map[int]int64, len(m.statusCodes)),
	}

	for route, n := range m.requests {
		snap.Routes[route] = n
		snap.TotalRequests += n
	}
	for code, n := range m.statusCodes {
		snap.StatusCodes[code] = n
	}

	if len(m.upstreamCalls) == 0 && !m.healthKnown {
		return snap
	}

	um := &UpstreamMetrics{Outcomes: make(map[string]int64, len(m.upstreamCalls))}
	for outcome, n := range m.upstreamCalls {
		um.Outcomes[outcome] = n
		um.Calls += n
	}

	if m.healthKnown {
		healthy := m.upstreamHealth
		um.Healthy = &healthy
	}

	if len(m.upstreamTimes) > 0 {
		sorted := make([]time.Duration, len(m.upstreamTimes))
		copy(sorted, m.upstreamTimes)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i] < sorted[j]
		})

		um.AvgResponse = average(sorted)
		um.P50Response = percentile(sorted, 0.50)
		um.P95Response = percentile(sorted, 0.95)
		um.P99Response = percentile(sorted, 0.99)
	}

	snap.Upstream = um
	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
