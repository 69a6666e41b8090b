// Package chat relays messages between websocket clients attending the
// same event. Each event gets its own hub; hubs are created lazily and
// torn down when the registry is closed.
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dpetukhov/livetalks/internal/logging"
)

// Message is the wire format relayed to every client in a room.
type Message struct {
	EventID string    `json:"event_id"`
	Sender  string    `json:"sender"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sent_at"`
}

// Hub maintains the set of active clients for one event and broadcasts
// messages to them.
type Hub struct {
	eventID    string
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     logging.Logger
	mu         sync.Mutex
}

func newHub(eventID string, logger logging.Logger) *Hub {
	return &Hub{
		eventID:    eventID,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast marshals msg and relays it to every connected client.
func (h *Hub) Broadcast(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(context.Background(), "cannot marshal chat message", "error", err)
		return
	}
	select {
	case h.broadcast <- b:
	case <-h.done:
	}
}

// Registry vends one running hub per event.
type Registry struct {
	mu     sync.Mutex
	hubs   map[string]*Hub
	closed bool
	logger logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		hubs:   make(map[string]*Hub),
		logger: logger.With("module", "chat"),
	}
}

// Hub returns the hub for the given event, starting it if needed.
func (r *Registry) Hub(eventID string) *Hub {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.hubs[eventID]; ok {
		return h
	}
	h := newHub(eventID, r.logger)
	if !r.closed {
		r.hubs[eventID] = h
		go h.run()
	}
	return h
}

// Close stops all hubs and disconnects their clients.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, h := range r.hubs {
		close(h.done)
		delete(r.hubs, id)
	}
}
