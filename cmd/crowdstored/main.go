// cmd/crowdstored/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohanmatta11/CrowdSense/internal/api"
	"github.com/rohanmatta11/CrowdSense/internal/config"
	"github.com/rohanmatta11/CrowdSense/internal/storage"
	"github.com/rohanmatta11/CrowdSense/internal/websocket"
)

func main() {
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("Error opening record store: %v", err)
	}
	defer store.Close()

	hub := websocket.NewHub()
	go hub.Run()

	handler := api.NewHandler(store, hub)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server.APIKeys),
	}

	go func() {
		log.Printf("Starting record store on port %d (db: %s)", cfg.Server.Port, cfg.Server.DBPath)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down record store...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Record store stopped.")
}
