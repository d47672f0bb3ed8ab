// internal/reconcile/reconciler.go
package reconcile

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/rohanmatta11/CrowdSense/internal/data"
)

// Policy holds the two thresholds that decide a record's fate. Proximity is
// in raw degrees with a planar distance, not geodesic; fine at city scale.
type Policy struct {
	Proximity float64
	Staleness time.Duration
}

// Reconcile selects the records a fresh submission supersedes: every other
// record that sits within Proximity of the new one, plus any record past the
// staleness cutoff regardless of where it is. The new record itself is never
// selected.
func (p Policy) Reconcile(newID string, newPt orb.Point, now time.Time, others []data.CrowdRecord) []string {
	var doomed []string
	for _, r := range others {
		if r.ID == newID {
			continue
		}
		if planar.Distance(newPt, r.Point()) < p.Proximity || p.expired(now, r) {
			doomed = append(doomed, r.ID)
		}
	}
	return doomed
}

// Sweep selects every record past the staleness cutoff. No spatial component.
// Running it twice in a row with nothing inserted in between selects nothing
// the second time, once the first sweep's deletions landed.
func (p Policy) Sweep(now time.Time, records []data.CrowdRecord) []string {
	var doomed []string
	for _, r := range records {
		if p.expired(now, r) {
			doomed = append(doomed, r.ID)
		}
	}
	return doomed
}

func (p Policy) expired(now time.Time, r data.CrowdRecord) bool {
	return now.Sub(r.CreatedAt) > p.Staleness
}
