package notification

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the envelope pushed to connected clients
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub keeps one websocket connection per connected user
type Hub struct {
	clients map[string]*client
	mutex   sync.Mutex
}

// NewHub returns an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Serve upgrades the request and keeps userID registered until the connection closes.
// A newer connection for the same user replaces the older one.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "userID", userID, "error", err)
		return
	}
	c := &client{conn: conn}

	h.mutex.Lock()
	if old, ok := h.clients[userID]; ok {
		old.conn.Close()
	}
	h.clients[userID] = c
	h.mutex.Unlock()
	zap.S().Debugw("user connected to notifications", "userID", userID)

	defer func() {
		h.remove(userID, c)
		conn.Close()
		zap.S().Debugw("user disconnected from notifications", "userID", userID)
	}()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// Send pushes data to userID if connected. It reports whether a client received it.
func (h *Hub) Send(userID, event string, data interface{}) bool {
	h.mutex.Lock()
	c, ok := h.clients[userID]
	h.mutex.Unlock()
	if !ok {
		return false
	}
	if err := c.write(Event{Event: event, Data: data}); err != nil {
		zap.S().Warnw("failed to push notification", "userID", userID, "error", err)
		h.remove(userID, c)
		c.conn.Close()
		return false
	}
	return true
}

// Connected reports whether userID has a live connection
func (h *Hub) Connected(userID string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) remove(userID string, c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.clients[userID] == c {
		delete(h.clients, userID)
	}
}
