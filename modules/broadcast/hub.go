package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// sendBuffer is the per-client outbound queue depth. A full buffer drops
// the frame; delivery is best-effort with no retries.
const sendBuffer = 64

// Conn is the subset of a WebSocket connection the hub writes to. Kept as
// an interface so tests can fake the transport.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// textMessage mirrors websocket.TextMessage without importing the
// websocket package here.
const textMessage = 1

// Client represents one connected WebSocket client. Frames are queued on a
// buffered channel and written by a dedicated pump so the engine never
// blocks on transport I/O.
type Client struct {
	ID   string
	conn Conn
	send chan []byte
	once sync.Once
}

// close stops the client's pump and closes the connection.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// writePump drains the send queue onto the connection.
func (c *Client) writePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(textMessage, data); err != nil {
			log.Printf("[hub] Write to client %s failed: %v", c.ID, err)
		}
	}
	_ = c.conn.Close()
}

// OutboundFrame is the wire envelope written to clients.
type OutboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hub manages WebSocket connections keyed by connection id. It keeps no
// room grouping: the engine resolves every recipient set itself and the
// hub only writes frames.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client and starts its write pump.
func (h *Hub) Register(connID string, conn Conn) *Client {
	c := &Client{
		ID:   connID,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	prev := h.clients[connID]
	h.clients[connID] = c
	h.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	go c.writePump()
	log.Printf("[hub] Client %s registered", connID)
	return c
}

// Unregister removes a client and closes its connection.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
	}
	h.mu.Unlock()

	if ok {
		c.close()
		log.Printf("[hub] Client %s unregistered", connID)
	}
}

// SendTo queues a frame for the listed connections. Unknown ids and full
// buffers are skipped silently.
func (h *Hub) SendTo(connIDs []string, event string, payload json.RawMessage) {
	data, err := json.Marshal(OutboundFrame{Type: event, Data: payload})
	if err != nil {
		log.Printf("[hub] Failed to marshal frame %s: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		if c, ok := h.clients[id]; ok {
			h.queue(c, data)
		}
	}
}

// SendAll queues a frame for every connected client.
func (h *Hub) SendAll(event string, payload json.RawMessage) {
	data, err := json.Marshal(OutboundFrame{Type: event, Data: payload})
	if err != nil {
		log.Printf("[hub] Failed to marshal frame %s: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.queue(c, data)
	}
}

func (h *Hub) queue(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("[hub] Client %s send buffer full, dropping frame", c.ID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client connection.
func (h *Hub) Shutdown(_ context.Context) {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
