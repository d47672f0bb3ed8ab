// internal/sensor/feed.go
package sensor

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rohanmatta11/CrowdSense/internal/location"
)

const redialDelay = 3 * time.Second

// Advertisement is one discovery event from the gateway: an address that is
// stable only for the lifetime of one connection, the advertised name if any,
// and the received signal strength (higher is stronger).
type Advertisement struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	RSSI    int    `json:"rssi"`
}

// HasName reports whether the device advertised a display name.
func (a Advertisement) HasName() bool {
	return a.Name != ""
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type positionPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Feed consumes the discovery gateway's websocket stream. Advertisement
// frames go to the subscribed handler, position frames update the location
// tracker. The feed reports not-ready whenever the connection is down, which
// is what keeps scan sessions from opening against a dead sensor.
type Feed struct {
	url     string
	tracker *location.Tracker

	mu      sync.RWMutex
	ready   bool
	handler func(Advertisement)
}

func NewFeed(url string, tracker *location.Tracker) *Feed {
	return &Feed{url: url, tracker: tracker}
}

// Subscribe sets the advertisement handler. Events arriving with no handler
// set are dropped.
func (f *Feed) Subscribe(fn func(Advertisement)) {
	f.mu.Lock()
	f.handler = fn
	f.mu.Unlock()
}

// Ready reports whether the gateway connection is up.
func (f *Feed) Ready() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ready
}

// Run dials the gateway and pumps frames until ctx is cancelled, redialing
// after connection loss.
func (f *Feed) Run(ctx context.Context) {
	for {
		if err := f.connect(ctx); err != nil {
			log.Printf("Discovery feed disconnected: %v", err)
		}
		f.setReady(false)

		select {
		case <-ctx.Done():
			return
		case <-time.After(redialDelay):
		}
	}
}

func (f *Feed) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when the caller shuts down.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	f.setReady(true)
	log.Printf("Discovery feed connected: %s", f.url)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.dispatch(message)
	}
}

func (f *Feed) dispatch(message []byte) {
	var fr frame
	if err := json.Unmarshal(message, &fr); err != nil {
		log.Printf("Dropping unreadable feed frame: %v", err)
		return
	}

	switch fr.Type {
	case "advertisement":
		var adv Advertisement
		if err := json.Unmarshal(fr.Payload, &adv); err != nil {
			log.Printf("Dropping bad advertisement frame: %v", err)
			return
		}
		f.mu.RLock()
		handler := f.handler
		f.mu.RUnlock()
		if handler != nil {
			handler(adv)
		}
	case "position":
		var pos positionPayload
		if err := json.Unmarshal(fr.Payload, &pos); err != nil {
			log.Printf("Dropping bad position frame: %v", err)
			return
		}
		f.tracker.Update(pos.Lat, pos.Lon)
	default:
		// Unknown frame types are forward compatibility, not errors.
	}
}

func (f *Feed) setReady(ready bool) {
	f.mu.Lock()
	f.ready = ready
	f.mu.Unlock()
}
