package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/holdwatch/pkg/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the websocket envelope
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub broadcasts alerts to websocket subscribers
type Hub struct {
	logger  *logger.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:  log.Component("ws"),
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Name implements Named
func (h *Hub) Name() string { return "websocket" }

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Debug("WebSocket client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.WithField("clients", remaining).Debug("WebSocket client disconnected")
	}()

	// Clients only listen; reading detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Warn("WebSocket error")
			}
			return
		}
	}
}

// Notify broadcasts the alert; per-client write failures are logged only
func (h *Hub) Notify(ctx context.Context, alert Alert) error {
	data, err := json.Marshal(Message{Type: "alert", Payload: alert})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	locks := make([]*sync.Mutex, 0, len(h.clients))
	for conn, lock := range h.clients {
		conns = append(conns, conn)
		locks = append(locks, lock)
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		locks[i].Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, data)
		locks[i].Unlock()

		if err != nil {
			h.logger.WithError(err).Warn("Failed to send alert to client")
		}
	}

	return nil
}
