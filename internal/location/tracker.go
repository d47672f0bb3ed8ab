// internal/location/tracker.go
package location

import (
	"sync"

	"github.com/paulmach/orb"
)

// Tracker caches the most recent known coordinate. Updates arrive
// asynchronously from whatever position source the process has; readers only
// ever see the latest value and never block waiting for a fix.
type Tracker struct {
	mu    sync.RWMutex
	point orb.Point
	fixed bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Update records a new fix.
func (t *Tracker) Update(lat, lon float64) {
	t.mu.Lock()
	t.point = orb.Point{lon, lat}
	t.fixed = true
	t.mu.Unlock()
}

// Current returns the latest fix, or false if none was ever acquired.
func (t *Tracker) Current() (orb.Point, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.point, t.fixed
}
