// internal/scan/session.go
package scan

import (
	"errors"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/rohanmatta11/CrowdSense/internal/data"
)

// ErrSensorUnavailable means the discovery sensor was not in a ready state
// when the session tried to open. No window is started and no tally produced.
var ErrSensorUnavailable = errors.New("sensor unavailable")

// State is the session lifecycle. Transitions are strictly linear:
// idle -> scanning -> results -> idle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateResults
)

// Sensor is the readiness view of the discovery collaborator. The event
// stream itself arrives through Observe, driven by the feed.
type Sensor interface {
	Ready() bool
}

// Locator is the best-effort position view. Current never blocks.
type Locator interface {
	Current() (orb.Point, bool)
}

// Config carries the per-session policy values.
type Config struct {
	Window        time.Duration // collection window measured from Open
	RSSIThreshold int           // events at or below this are not admitted
	Default       orb.Point     // closing location when no fix exists
}

// Session is one bounded discovery window. All mutation (Observe, the timer
// close, Abandon) is serialized through one mutex: discovery callbacks arrive
// from the feed goroutine while the close timer fires from another.
type Session struct {
	mu      sync.Mutex
	state   State
	seen    map[string]struct{}
	unknown int

	cfg     Config
	locator Locator
	timer   *time.Timer
	onClose func(data.ScanTally)
	tally   data.ScanTally
}

// Open starts a collection window. The window closes on its own after
// cfg.Window; the tally is delivered to onClose from the timer goroutine.
func Open(sensor Sensor, locator Locator, cfg Config, onClose func(data.ScanTally)) (*Session, error) {
	if !sensor.Ready() {
		return nil, ErrSensorUnavailable
	}

	s := &Session{
		state:   StateScanning,
		seen:    make(map[string]struct{}),
		cfg:     cfg,
		locator: locator,
		onClose: onClose,
	}
	s.timer = time.AfterFunc(cfg.Window, s.close)
	return s, nil
}

// Observe feeds one discovery event into the session. Events at or below the
// RSSI threshold are ignored; duplicate keys count once per session no matter
// how strong the repeat reading is. Events after the window has closed are
// discarded.
func (s *Session) Observe(deviceKey string, hasName bool, rssi int) {
	if rssi <= s.cfg.RSSIThreshold {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateScanning {
		return
	}
	if _, dup := s.seen[deviceKey]; dup {
		return
	}
	s.seen[deviceKey] = struct{}{}
	if !hasName {
		s.unknown++
	}
}

// close fires from the window timer. An abandoned session leaves state at
// idle, so a stale timer that lost the Stop race finds nothing to do here.
func (s *Session) close() {
	s.mu.Lock()
	if s.state != StateScanning {
		s.mu.Unlock()
		return
	}

	tally := data.ScanTally{
		TotalCount:   len(s.seen),
		UnknownCount: s.unknown,
	}
	if pt, ok := s.locator.Current(); ok {
		tally.Location = pt
		tally.Located = true
	} else {
		tally.Location = s.cfg.Default
	}

	s.state = StateResults
	s.tally = tally
	onClose := s.onClose
	s.mu.Unlock()

	if onClose != nil {
		onClose(tally)
	}
}

// Abandon tears the session down before the window elapses. The timer is
// invalidated so a concurrent fire cannot produce a tally for a session the
// caller has already walked away from.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScanning {
		return
	}
	s.timer.Stop()
	s.state = StateIdle
	s.seen = nil
	s.unknown = 0
}

// Reset returns a closed session to idle. No-op unless results are showing.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateResults {
		s.state = StateIdle
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tally returns the closing tally. Only meaningful in StateResults.
func (s *Session) Tally() (data.ScanTally, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally, s.state == StateResults
}
