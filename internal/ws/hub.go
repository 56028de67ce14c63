package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals the payload and wraps it in an Event. Marshal failures
// are logged and produce a null payload rather than dropping the event.
func NewEvent(eventType string, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event payload: %v", eventType, err)
		raw = json.RawMessage("null")
	}
	return Event{Type: eventType, Payload: raw}
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Every terminal connected to this service shares one feed; table and order
// events are relevant to all of them.
type Hub struct {
	clients map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan Event

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected client
// This is the public API for the session and service layers
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}
