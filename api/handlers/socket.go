package handlers

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the dashboard may be served from another origin
	},
}

// client is one connected dashboard socket. Writes are serialized per
// client; gorilla connections do not allow concurrent writers.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeEvent(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(map[string]any{
		"event": event,
		"data":  payload,
	})
}

// Hub fans state-change events out to every connected dashboard client.
// It implements the notifier contract of the pipeline and the feed
// manager, so both publish through the same socket. The registry lock is
// never held across a socket write: publishers may themselves hold
// pipeline locks, and a slow client must not stall them.
type Hub struct {
	validate  func(token string) error
	bootstrap func(send func(event string, payload any))

	mutex   sync.Mutex
	clients map[string]*client
}

// NewHub creates an empty hub. Tokens are validated with validate; a nil
// bootstrap sends nothing on connect.
func NewHub(validate func(token string) error) *Hub {
	return &Hub{
		validate: validate,
		clients:  make(map[string]*client),
	}
}

// SetBootstrap installs the snapshot replay sent to each new client.
func (h *Hub) SetBootstrap(bootstrap func(send func(event string, payload any))) {
	h.bootstrap = bootstrap
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection, replays the current snapshots
// and keeps the client registered until it disconnects. Auth comes from
// the token query parameter; browsers cannot set headers on an upgrade.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.validate(r.URL.Query().Get("token")); err != nil {
		zap.S().Warnw("websocket unauthorized", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	c := &client{conn: conn}
	h.mutex.Lock()
	h.clients[clientID] = c
	h.mutex.Unlock()
	zap.S().Infow("dashboard client connected", "clientId", clientID)

	if h.bootstrap != nil {
		h.bootstrap(func(event string, payload any) {
			if err := c.writeEvent(event, payload); err != nil {
				zap.S().Warnw("bootstrap send failed", "clientId", clientID, "error", err)
			}
		})
	}

	// Keep connection alive; clients never send application data.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	h.mutex.Lock()
	delete(h.clients, clientID)
	h.mutex.Unlock()
	conn.Close()
	zap.S().Infow("dashboard client disconnected", "clientId", clientID)
}

// Publish broadcasts one event to every connected client. A client whose
// write fails is dropped.
func (h *Hub) Publish(event string, payload any) {
	h.mutex.Lock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mutex.Unlock()

	for clientID, c := range targets {
		if err := c.writeEvent(event, payload); err != nil {
			zap.S().Warnw("dropping dashboard client", "clientId", clientID, "error", err)
			h.mutex.Lock()
			delete(h.clients, clientID)
			h.mutex.Unlock()
			c.conn.Close()
		}
	}
}
