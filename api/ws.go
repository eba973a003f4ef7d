package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub pushes each fresh snapshot to connected dashboard clients over
// websocket. Clients are write-only; anything they send is discarded.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	last    *snapshotView
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade websocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	last := h.last
	h.mu.Unlock()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Info("Dashboard client connected")

	// New clients get the latest snapshot immediately rather than waiting
	// for the next cycle.
	if last != nil {
		h.mu.Lock()
		if err := conn.WriteJSON(last); err != nil {
			h.logger.WithError(err).Warn("Failed to send initial snapshot")
		}
		h.mu.Unlock()
	}

	go h.readLoop(conn)
}

// readLoop drains inbound frames so pings are answered, and drops the client
// on read error.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

// Broadcast sends a snapshot to every connected client, dropping clients
// whose writes fail.
func (h *Hub) Broadcast(view snapshotView) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &view

	for conn := range h.clients {
		if err := conn.WriteJSON(view); err != nil {
			h.logger.WithError(err).Warn("Dropping dashboard client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
}
