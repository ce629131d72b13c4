package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dbehnke/dmr-bridge/pkg/logger"
	"github.com/gorilla/websocket"
)

// Event is one message broadcast to dashboard clients.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// wsClient is one connected dashboard.
type wsClient struct {
	id       string
	conn     *websocket.Conn
	messages chan []byte
}

// Hub manages WebSocket client connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	nextID  int
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]bool),
		log:     log,
	}
}

// Broadcast fans an event out to every connected client. Slow clients are
// skipped rather than blocking the caller.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", logger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.messages <- data:
		default:
			h.log.Warn("client buffer full, dropping event",
				logger.String("client_id", client.id))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Status dashboard, same trust domain as the node itself
		return true
	},
}

// handleWS upgrades one HTTP request into a dashboard connection.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", logger.Error(err))
		return
	}

	h.mu.Lock()
	h.nextID++
	client := &wsClient{
		id:       fmt.Sprintf("ws-%d", h.nextID),
		conn:     conn,
		messages: make(chan []byte, 64),
	}
	h.clients[client] = true
	h.mu.Unlock()

	h.log.Debug("websocket client connected", logger.String("client_id", client.id))

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's message queue onto the socket.
func (h *Hub) writePump(client *wsClient) {
	defer func() {
		_ = client.conn.Close()
	}()

	for msg := range client.messages {
		_ = client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump discards client input and tears the client down on disconnect.
func (h *Hub) readPump(client *wsClient) {
	defer h.drop(client)

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.messages)
	}
	h.mu.Unlock()
	h.log.Debug("websocket client disconnected", logger.String("client_id", client.id))
}

// closeAll tears down every client, used at server shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.messages)
	}
	h.mu.Unlock()
}
