package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced by the rs/cors layer
	},
}

// feedClient is one websocket subscriber. Writes are serialized per
// connection; gorilla allows only one concurrent writer.
type feedClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *feedClient) send(n feed.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(n)
}

// Hub fans change notifications out to the websocket subscribers of each
// group. It implements service.Notifier.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*feedClient]struct{}
	metrics *Metrics
}

// NewHub creates an empty hub.
func NewHub(metrics *Metrics) *Hub {
	return &Hub{groups: make(map[string]map[*feedClient]struct{}), metrics: metrics}
}

// Publish sends a notification to every subscriber of the group. Dead
// connections are dropped on write failure.
func (h *Hub) Publish(groupID string, n feed.Notification) {
	h.mu.RLock()
	clients := make([]*feedClient, 0, len(h.groups[groupID]))
	for c := range h.groups[groupID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(n); err != nil {
			slog.Warn("Feed write failed, dropping subscriber", "group_id", groupID, "error", err)
			h.remove(groupID, c)
			c.conn.Close()
		}
	}
	if h.metrics != nil {
		h.metrics.NotificationsPublished.WithLabelValues(n.Entity, n.Change).Inc()
	}
}

// ServeFeed upgrades the request and keeps the connection registered until
// the client disconnects. The caller has already authorized access to the
// group.
func (h *Hub) ServeFeed(w http.ResponseWriter, r *http.Request, groupID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Feed upgrade failed", "group_id", groupID, "error", err)
		return
	}

	client := &feedClient{conn: conn}
	h.mu.Lock()
	if h.groups[groupID] == nil {
		h.groups[groupID] = make(map[*feedClient]struct{})
	}
	h.groups[groupID][client] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.FeedConnections.Inc()
	}
	slog.Info("Feed subscriber connected", "group_id", groupID)

	defer func() {
		h.remove(groupID, client)
		conn.Close()
		if h.metrics != nil {
			h.metrics.FeedConnections.Dec()
		}
		slog.Info("Feed subscriber disconnected", "group_id", groupID)
	}()

	// The feed is one-way; drain client frames until the socket closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(groupID string, c *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.groups[groupID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.groups, groupID)
		}
	}
}
