// cmd/crowdsense/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/paulmach/orb"

	"github.com/rohanmatta11/CrowdSense/internal/config"
	"github.com/rohanmatta11/CrowdSense/internal/data"
	"github.com/rohanmatta11/CrowdSense/internal/location"
	"github.com/rohanmatta11/CrowdSense/internal/reconcile"
	"github.com/rohanmatta11/CrowdSense/internal/scan"
	"github.com/rohanmatta11/CrowdSense/internal/sensor"
	"github.com/rohanmatta11/CrowdSense/internal/store"
	"github.com/rohanmatta11/CrowdSense/internal/submit"
)

// agent drives the scan -> estimate -> submit cycle. Only one session is open
// at a time; advertisements arriving between sessions are dropped.
type agent struct {
	mu      sync.Mutex
	session *scan.Session

	feed     *sensor.Feed
	tracker  *location.Tracker
	pipeline *submit.Pipeline
	scanCfg  scan.Config
}

func (a *agent) observe(adv sensor.Advertisement) {
	a.mu.Lock()
	s := a.session
	a.mu.Unlock()
	if s != nil {
		s.Observe(adv.Address, adv.HasName(), adv.RSSI)
	}
}

// startSession opens the next scan window. Skipped when the previous session
// is still open or the sensor is down; the next tick tries again.
func (a *agent) startSession(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != nil {
		return
	}

	s, err := scan.Open(a.feed, a.tracker, a.scanCfg, func(tally data.ScanTally) {
		a.mu.Lock()
		a.session = nil
		a.mu.Unlock()

		if _, est, err := a.pipeline.Submit(ctx, tally); err != nil {
			log.Printf("Submission failed: %v", err)
		} else {
			log.Printf("Scan closed: %d unique, %d unnamed -> %d people (%s)",
				tally.TotalCount, tally.UnknownCount, est.PeopleCount, est.Level)
		}
	})
	if err != nil {
		log.Printf("Scan not started: %v", err)
		return
	}
	a.session = s
}

func main() {
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := location.NewTracker()
	feed := sensor.NewFeed(cfg.Scan.FeedURL, tracker)
	client := store.NewClient(cfg.Store.URL, cfg.Store.APIKey)
	pipeline := submit.New(client, reconcile.Policy{
		Proximity: cfg.Reconcile.Proximity,
		Staleness: cfg.Reconcile.Staleness,
	})

	a := &agent{
		feed:     feed,
		tracker:  tracker,
		pipeline: pipeline,
		scanCfg: scan.Config{
			Window:        cfg.Scan.Window,
			RSSIThreshold: cfg.Scan.RSSIThreshold,
			Default:       orb.Point{cfg.Scan.DefaultLon, cfg.Scan.DefaultLat},
		},
	}
	feed.Subscribe(a.observe)

	go feed.Run(ctx)
	go pipeline.RunJanitor(ctx, cfg.Reconcile.JanitorInterval)

	log.Printf("crowdsense agent up: store %s, scanning every %s", cfg.Store.URL, cfg.Scan.Cadence)

	ticker := time.NewTicker(cfg.Scan.Cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.mu.Lock()
			if a.session != nil {
				a.session.Abandon()
			}
			a.mu.Unlock()
			log.Println("crowdsense agent stopped.")
			return
		case <-ticker.C:
			a.startSession(ctx)
		}
	}
}
