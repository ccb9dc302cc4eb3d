// Package stats tracks eAPI call outcomes per endpoint.
package stats

import (
	"sort"
	"sync"
	"time"
)

// Window is how long individual calls are kept.
const Window = time.Hour

// maxRecentErrors bounds RecentErrors in a snapshot.
const maxRecentErrors = 5

// Status values reported per endpoint.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Call represents a single call to one endpoint.
type Call struct {
	Timestamp time.Time
	Success   bool
	Latency   time.Duration
	Error     string
}

// LatencyMS holds latency percentiles in milliseconds.
type LatencyMS struct {
	P50 int64 `json:"p50" yaml:"p50"`
	P95 int64 `json:"p95" yaml:"p95"`
	P99 int64 `json:"p99" yaml:"p99"`
}

// EndpointStats is the snapshot of one endpoint over Window.
type EndpointStats struct {
	Endpoint     string    `json:"endpoint" yaml:"endpoint"`
	Status       string    `json:"status" yaml:"status"`
	LastCall     time.Time `json:"last_call" yaml:"last_call"`
	TotalCalls   int       `json:"total_calls_1h" yaml:"total_calls_1h"`
	SuccessRate  float64   `json:"success_rate_1h" yaml:"success_rate_1h"`
	Latency      LatencyMS `json:"latency_ms" yaml:"latency_ms"`
	RecentErrors []string  `json:"recent_errors" yaml:"recent_errors"`
}

// Tracker records calls per endpoint ("GET reports/list"). Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	calls map[string][]Call
	now   func() time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		calls: make(map[string][]Call),
		now:   time.Now,
	}
}

// TrackSuccess records a successful call.
func (t *Tracker) TrackSuccess(endpoint string, latency time.Duration) {
	t.track(endpoint, Call{Success: true, Latency: latency})
}

// TrackFailure records a failed call.
func (t *Tracker) TrackFailure(endpoint string, latency time.Duration, errorMsg string) {
	t.track(endpoint, Call{Success: false, Latency: latency, Error: errorMsg})
}

func (t *Tracker) track(endpoint string, call Call) {
	t.mu.Lock()
	defer t.mu.Unlock()

	call.Timestamp = t.now().UTC()
	t.calls[endpoint] = prune(append(t.calls[endpoint], call), call.Timestamp.Add(-Window))
}

// prune drops calls older than cutoff. Calls are appended in time order.
func prune(calls []Call, cutoff time.Time) []Call {
	for i, call := range calls {
		if call.Timestamp.After(cutoff) {
			return calls[i:]
		}
	}
	return calls[:0]
}

// Snapshot returns per-endpoint statistics sorted by endpoint.
func (t *Tracker) Snapshot() []EndpointStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().UTC().Add(-Window)
	out := make([]EndpointStats, 0, len(t.calls))

	for endpoint, calls := range t.calls {
		calls = prune(calls, cutoff)
		t.calls[endpoint] = calls
		if len(calls) == 0 {
			continue
		}

		var successCount int
		var lastCall time.Time
		latencies := make([]float64, 0, len(calls))
		recentErrors := make([]string, 0)

		// Newest errors first
		for i := len(calls) - 1; i >= 0; i-- {
			call := calls[i]
			if call.Success {
				successCount++
			} else if len(recentErrors) < maxRecentErrors {
				recentErrors = append(recentErrors, call.Error)
			}
			latencies = append(latencies, float64(call.Latency.Milliseconds()))
			if call.Timestamp.After(lastCall) {
				lastCall = call.Timestamp
			}
		}

		successRate := float64(successCount) / float64(len(calls))
		sort.Float64s(latencies)

		out = append(out, EndpointStats{
			Endpoint:    endpoint,
			Status:      status(successRate),
			LastCall:    lastCall,
			TotalCalls:  len(calls),
			SuccessRate: successRate,
			Latency: LatencyMS{
				P50: int64(percentile(latencies, 0.50)),
				P95: int64(percentile(latencies, 0.95)),
				P99: int64(percentile(latencies, 0.99)),
			},
			RecentErrors: recentErrors,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

func status(successRate float64) string {
	switch {
	case successRate < 0.9:
		return StatusUnhealthy
	case successRate < 0.95:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// percentile calculates the percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
