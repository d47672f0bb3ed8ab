// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	gwebsocket "github.com/gorilla/websocket"

	"github.com/rohanmatta11/CrowdSense/internal/data"
	"github.com/rohanmatta11/CrowdSense/internal/websocket"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Store is what the handlers need from the record store.
type Store interface {
	Insert(ctx context.Context, peopleCount int, lat, lon float64) (data.CrowdRecord, error)
	All(ctx context.Context) ([]data.CrowdRecord, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	store Store
	hub   *websocket.Hub
}

func NewHandler(store Store, hub *websocket.Hub) *Handler {
	return &Handler{store: store, hub: hub}
}

type insertRequest struct {
	PeopleCount int     `json:"people_count"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// HandleInsert creates a record. The store assigns id and timestamp; the
// submitting client has no say in either.
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: cannot parse JSON", http.StatusBadRequest)
		return
	}
	if req.PeopleCount < 1 {
		http.Error(w, "Bad Request: people_count must be at least 1", http.StatusBadRequest)
		return
	}

	rec, err := h.store.Insert(r.Context(), req.PeopleCount, req.Lat, req.Lon)
	if err != nil {
		log.Printf("Insert failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRecord(rec)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

// HandleList returns every live record.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.All(r.Context())
	if err != nil {
		log.Printf("Select failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []data.CrowdRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// HandleDelete removes a record. Absent ids succeed: two reconciling clients
// racing over the same record must both come away happy.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		log.Printf("Delete of %s failed: %v", id, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRemoval(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFeed upgrades the connection and subscribes the viewer to record
// events.
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Feed upgrade error: %v", err)
		return
	}
	websocket.NewClient(h.hub, conn)
}
