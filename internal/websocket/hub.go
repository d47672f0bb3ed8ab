// internal/websocket/hub.go
package websocket

import (
	"encoding/json"
	"log"
)

// Hub fans record-store events out to subscribed viewers: a "record" event
// per insert, a "removed" event per delete. Viewers are read-only; nothing
// they send changes store state.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run owns the client set. All map access happens on this goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Feed viewer connected: %s", client.conn.RemoteAddr())

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Feed viewer disconnected: %s", client.conn.RemoteAddr())
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow viewer; drop it rather than stall the store.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastRecord announces a newly inserted record.
func (h *Hub) BroadcastRecord(record interface{}) {
	h.send("record", record)
}

// BroadcastRemoval announces a deleted record id.
func (h *Hub) BroadcastRemoval(id string) {
	h.send("removed", id)
}

func (h *Hub) send(eventType string, payload interface{}) {
	message, err := json.Marshal(map[string]interface{}{"type": eventType, "payload": payload})
	if err != nil {
		log.Printf("Error marshalling %s event: %v", eventType, err)
		return
	}
	h.broadcast <- message
}
