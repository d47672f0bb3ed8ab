// internal/submit/pipeline.go
package submit

import (
	"context"
	"log"
	"time"

	"github.com/rohanmatta11/CrowdSense/internal/data"
	"github.com/rohanmatta11/CrowdSense/internal/estimate"
	"github.com/rohanmatta11/CrowdSense/internal/reconcile"
)

// RecordStore is what the pipeline needs from the shared store.
type RecordStore interface {
	Insert(ctx context.Context, peopleCount int, lat, lon float64) (data.CrowdRecord, error)
	SelectAll(ctx context.Context) ([]data.CrowdRecord, error)
	Delete(ctx context.Context, id string) error
}

// Pipeline turns a closed scan tally into a stored record and cleans up the
// records it supersedes. Many independent agents run this against the same
// store with no coordination beyond the store itself; deletion is at-least-
// once and best-effort throughout.
type Pipeline struct {
	store  RecordStore
	policy reconcile.Policy
	now    func() time.Time
}

func New(store RecordStore, policy reconcile.Policy) *Pipeline {
	return &Pipeline{store: store, policy: policy, now: time.Now}
}

// Submit derives the estimate, inserts the record, then reconciles. The
// submission succeeds once the insert succeeds: a failed post-insert fetch or
// failed individual deletes leave cleanup to the next cycle or the janitor.
func (p *Pipeline) Submit(ctx context.Context, tally data.ScanTally) (data.CrowdRecord, data.CrowdEstimate, error) {
	est := estimate.Estimate(tally)

	lat, lon := tally.Location.Lat(), tally.Location.Lon()
	rec, err := p.store.Insert(ctx, est.PeopleCount, lat, lon)
	if err != nil {
		return data.CrowdRecord{}, est, err
	}
	log.Printf("Submitted record %s: %d people (%s) at (%.5f, %.5f)",
		rec.ID, est.PeopleCount, est.Level, lat, lon)

	others, err := p.store.SelectAll(ctx)
	if err != nil {
		log.Printf("Skipping reconciliation, fetch failed: %v", err)
		return rec, est, nil
	}

	doomed := p.policy.Reconcile(rec.ID, rec.Point(), p.now(), others)
	p.deleteAll(ctx, doomed)
	return rec, est, nil
}

// SweepOnce runs one janitor pass: fetch everything, delete what aged out.
// A failed fetch just means this cycle does nothing.
func (p *Pipeline) SweepOnce(ctx context.Context) {
	records, err := p.store.SelectAll(ctx)
	if err != nil {
		log.Printf("Janitor fetch failed, trying again next cycle: %v", err)
		return
	}

	doomed := p.policy.Sweep(p.now(), records)
	if len(doomed) > 0 {
		log.Printf("Janitor expiring %d record(s)", len(doomed))
	}
	p.deleteAll(ctx, doomed)
}

// RunJanitor sweeps on a fixed cadence until ctx is cancelled.
func (p *Pipeline) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.SweepOnce(ctx)
		}
	}
}

func (p *Pipeline) deleteAll(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := p.store.Delete(ctx, id); err != nil {
			// Another client may get it, or the janitor will.
			log.Printf("Failed to delete record %s: %v", id, err)
		}
	}
}
