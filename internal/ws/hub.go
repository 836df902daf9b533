package ws

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Message types pushed to connected clients.
const (
	MessageTypeFeedUpdate = "feed_update"
)

// Message is the envelope for every websocket push.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
	Time int64  `json:"time"`
}

// Hub maintains the set of connected clients and broadcasts feed
// updates to all of them. The feed is per-deployment, so every client
// receives every update.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	log        zerolog.Logger
	mu         sync.RWMutex
}

// NewHub creates a new websocket hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 16),
		log:        log,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug().Int("clients", h.ClientCount()).Msg("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Debug().Int("clients", h.ClientCount()).Msg("websocket client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastFeedUpdate pushes the given feed payload to every client.
func (h *Hub) BroadcastFeedUpdate(data any) {
	msg := Message{
		Type: MessageTypeFeedUpdate,
		Data: data,
		Time: time.Now().Unix(),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Msg("websocket broadcast queue full, dropping update")
	}
}
