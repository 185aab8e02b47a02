package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"safetycore/internal/collab"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans committed push events out to every connected WebSocket client.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

// Broadcast writes each event to all connected clients, dropping clients
// whose writes fail.
func (h *Hub) Broadcast(events []collab.Event) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		for _, ev := range events {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				_ = conn.Close()
				delete(h.conns, conn)
				break
			}
		}
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away. Clients are write-only; inbound messages are drained
// solely to detect closure.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.register(conn)
	defer h.unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[conn] {
		_ = conn.Close()
		delete(h.conns, conn)
	}
	h.mu.Unlock()
}

// ClientCount reports the number of registered connections. Used by tests.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
