package gateway

import (
	"sync"

	"github.com/humphreyhhui/LanguageGames/pkg/logger"
)

// Hub tracks every websocket connection by connection id and routes outbound
// events to their send queues.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex

	send       chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// Message is one outbound event addressed to a single connection.
type Message struct {
	ConnectionID string      `json:"-"`
	Type         string      `json:"type"`
	Payload      interface{} `json:"payload,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		send:       make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and outbound traffic until Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.send:
			h.deliver(message)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop shuts the hub down and closes every connection.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.connectionID] = client
	logger.Info("Connection registered",
		"connectionId", client.connectionID,
		"totalConnections", len(h.clients),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client.connectionID]; exists {
		delete(h.clients, client.connectionID)
		close(client.sendQueue)
		logger.Info("Connection unregistered",
			"connectionId", client.connectionID,
			"totalConnections", len(h.clients),
		)
	}
}

func (h *Hub) deliver(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[message.ConnectionID]
	if !exists {
		// Connection already gone; status pushes and late results are
		// silently dropped.
		return
	}

	select {
	case client.sendQueue <- message:
	default:
		logger.Warn("Connection send queue full, dropping",
			"connectionId", message.ConnectionID,
			"eventType", message.Type,
		)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.sendQueue)
		client.conn.Close()
		delete(h.clients, id)
	}
}

// Send queues one event for a connection. Best effort: unknown connections
// are dropped silently.
func (h *Hub) Send(connectionID, eventType string, payload interface{}) {
	select {
	case h.send <- &Message{ConnectionID: connectionID, Type: eventType, Payload: payload}:
	case <-h.done:
	}
}

// SendError queues an error event for a connection. Errors go to the
// originating connection only, never the room.
func (h *Hub) SendError(connectionID, code, message string) {
	h.Send(connectionID, EventError, errorPayload{Code: code, Message: message})
}

// Disconnect force-closes a connection's socket. The read pump notices and
// runs the normal unregister path.
func (h *Hub) Disconnect(connectionID string) {
	h.mu.RLock()
	client, exists := h.clients[connectionID]
	h.mu.RUnlock()

	if exists {
		client.conn.Close()
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
