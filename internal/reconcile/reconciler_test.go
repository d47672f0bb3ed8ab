package reconcile

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/rohanmatta11/CrowdSense/internal/data"
)

var policy = Policy{Proximity: 0.01, Staleness: 30 * time.Minute}

func record(id string, lat, lon float64, age time.Duration, now time.Time) data.CrowdRecord {
	return data.CrowdRecord{
		ID:        id,
		Lat:       lat,
		Lon:       lon,
		CreatedAt: now.Add(-age),
	}
}

func TestReconcileNearbyRecordSuperseded(t *testing.T) {
	now := time.Now()
	// Distance ~0.0014 degrees, well under 0.01. Age is irrelevant here.
	others := []data.CrowdRecord{record("r1", 0.001, 0.001, time.Minute, now)}

	doomed := policy.Reconcile("new", orb.Point{0, 0}, now, others)
	assert.Equal(t, []string{"r1"}, doomed)
}

func TestReconcileDistantFreshRecordKept(t *testing.T) {
	now := time.Now()
	others := []data.CrowdRecord{record("r1", 1.0, 1.0, 29*time.Minute, now)}

	doomed := policy.Reconcile("new", orb.Point{0, 0}, now, others)
	assert.Empty(t, doomed)
}

func TestReconcileDistantStaleRecordDeleted(t *testing.T) {
	now := time.Now()
	others := []data.CrowdRecord{record("r1", 1.0, 1.0, 31*time.Minute, now)}

	doomed := policy.Reconcile("new", orb.Point{0, 0}, now, others)
	assert.Equal(t, []string{"r1"}, doomed)
}

func TestReconcileBoundaryDistance(t *testing.T) {
	now := time.Now()
	others := []data.CrowdRecord{
		record("exact", 0.01, 0, time.Minute, now),  // d == 0.01: kept, strict <
		record("inside", 0.0099, 0, time.Minute, now),
	}

	doomed := policy.Reconcile("new", orb.Point{0, 0}, now, others)
	assert.Equal(t, []string{"inside"}, doomed)
}

func TestReconcileNeverSelectsSelf(t *testing.T) {
	now := time.Now()
	others := []data.CrowdRecord{
		record("new", 0, 0, 40*time.Minute, now), // same id, overlapping and stale
		record("r2", 0.002, 0, time.Minute, now),
	}

	doomed := policy.Reconcile("new", orb.Point{0, 0}, now, others)
	assert.Equal(t, []string{"r2"}, doomed)
}

func TestSweepSelectsOnlyStale(t *testing.T) {
	now := time.Now()
	records := []data.CrowdRecord{
		record("old", 10, 10, 31*time.Minute, now),
		record("fresh", 10, 10, 29*time.Minute, now),
		record("ancient", -50, 120, 2*time.Hour, now),
	}

	doomed := policy.Sweep(now, records)
	assert.ElementsMatch(t, []string{"old", "ancient"}, doomed)
}

func TestSweepIdempotent(t *testing.T) {
	now := time.Now()
	records := []data.CrowdRecord{
		record("old", 0, 0, time.Hour, now),
		record("fresh", 0, 0, time.Minute, now),
	}

	first := policy.Sweep(now, records)
	assert.Equal(t, []string{"old"}, first)

	// Simulate the deletions landing, then sweep again.
	var remaining []data.CrowdRecord
	for _, r := range records {
		if r.ID != "old" {
			remaining = append(remaining, r)
		}
	}
	assert.Empty(t, policy.Sweep(now, remaining))
}
