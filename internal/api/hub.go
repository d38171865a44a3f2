package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/landarea-core/internal/infrastructure/logging"
)

// ChannelCatalogRefreshed is broadcast after the factor tables are reloaded.
const ChannelCatalogRefreshed = "catalog.refreshed"

// Hub tracks connected panels. It pushes session states after a catalog
// change and fans events out to clients subscribed to a channel.
type Hub struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	for _, c := range h.snapshot() {
		h.Unregister(c)
		if c.conn != nil {
			c.conn.Close() //nolint:errcheck // shutting down
		}
	}
}

// Register adds a client.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "clients", n)
}

// Unregister removes a client and closes its outbound queue. Calling it
// again for the same client is a no-op.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.closeSend()
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// Broadcast sends an event to every client subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: timestamp(),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event failed", "channel", channel, "error", err)
		return
	}

	sent := 0
	for _, c := range h.snapshot() {
		if c.subscribed(channel) && c.enqueue(data) {
			sent++
		}
	}
	h.logger.Debug("websocket event broadcast", "channel", channel, "recipients", sent)
}

// PushStates recomputes each session-bound client's output against the
// current tables and sends the result. Inputs are unchanged.
func (h *Hub) PushStates() {
	for _, c := range h.snapshot() {
		if c.session != nil {
			c.sendState("", c.session.Recompute())
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// snapshot copies the client set so sends happen without the hub lock.
func (h *Hub) snapshot() []*WSClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
