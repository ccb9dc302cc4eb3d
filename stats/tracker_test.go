package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(now *time.Time) *Tracker {
	tr := NewTracker()
	tr.now = func() time.Time { return *now }
	return tr
}

func TestSnapshotEmpty(t *testing.T) {
	assert.Empty(t, NewTracker().Snapshot())
}

func TestSnapshotAggregates(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(&now)

	for i := 1; i <= 9; i++ {
		tr.TrackSuccess("GET reports/list", time.Duration(i*10)*time.Millisecond)
	}
	tr.TrackFailure("GET reports/list", 500*time.Millisecond, "TransportError: timeout")
	tr.TrackSuccess("POST reports/create", 20*time.Millisecond)

	snap := tr.Snapshot()
	require.Len(t, snap, 2)

	list := snap[0]
	assert.Equal(t, "GET reports/list", list.Endpoint)
	assert.Equal(t, 10, list.TotalCalls)
	assert.InDelta(t, 0.9, list.SuccessRate, 1e-9)
	assert.Equal(t, StatusDegraded, list.Status)
	assert.Equal(t, int64(50), list.Latency.P50)
	assert.Equal(t, int64(90), list.Latency.P95)
	assert.Equal(t, []string{"TransportError: timeout"}, list.RecentErrors)
	assert.Equal(t, now, list.LastCall)

	create := snap[1]
	assert.Equal(t, "POST reports/create", create.Endpoint)
	assert.Equal(t, StatusHealthy, create.Status)
	assert.Empty(t, create.RecentErrors)
}

func TestStatusThresholds(t *testing.T) {
	assert.Equal(t, StatusHealthy, status(1))
	assert.Equal(t, StatusHealthy, status(0.95))
	assert.Equal(t, StatusDegraded, status(0.9))
	assert.Equal(t, StatusUnhealthy, status(0.5))
}

func TestOldCallsArePruned(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(&now)

	tr.TrackFailure("GET account/credits", time.Millisecond, "old failure")
	now = now.Add(2 * time.Hour)

	assert.Empty(t, tr.Snapshot())

	tr.TrackSuccess("GET account/credits", time.Millisecond)
	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].TotalCalls)
	assert.Equal(t, StatusHealthy, snap[0].Status)
}

func TestRecentErrorsBounded(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(&now)

	for i := 0; i < 8; i++ {
		tr.TrackFailure("GET reports/list", time.Millisecond, "err")
	}

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	assert.Len(t, snap[0].RecentErrors, maxRecentErrors)
	assert.Equal(t, StatusUnhealthy, snap[0].Status)
}
