package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// connection is one tracked websocket. All writes go through the send
// channel and the single writePump goroutine; gorilla/websocket permits
// only one concurrent writer per connection.
type connection struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Hub tracks the portal's live websocket connections per user and pushes
// in-app notifications to them. Push is best effort: a user with no open
// connection simply reads the notification from the inbox later.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string][]*connection
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string][]*connection),
		logger: logger,
	}
}

// Upgrade turns an HTTP request into a tracked connection for the user
// and starts its read and write pumps.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, userID string) error {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	conn := &connection{
		conn: ws,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.conns[userID] = append(h.conns[userID], conn)
	h.mu.Unlock()

	h.logger.Debug("websocket connected", zap.String("user_id", userID))

	go h.writePump(userID, conn)
	go h.readPump(userID, conn)
	return nil
}

// SendToUser pushes a JSON payload to every open connection of a user.
// The payload is enqueued; the write pump serializes the actual writes.
func (h *Hub) SendToUser(userID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	h.mu.RLock()
	conns := h.conns[userID]
	if len(conns) == 0 {
		h.mu.RUnlock()
		return fmt.Errorf("user %s has no open connection", userID)
	}

	// Enqueue while holding the read lock: remove closes the send channel
	// only under the write lock, so no send can race a close.
	var stalled []*connection
	for _, conn := range conns {
		select {
		case conn.send <- data:
		default:
			stalled = append(stalled, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range stalled {
		h.logger.Debug("dropping stalled websocket", zap.String("user_id", userID))
		h.remove(userID, conn)
	}
	return nil
}

// Broadcast pushes a payload to every connected user.
func (h *Hub) Broadcast(payload any) {
	h.mu.RLock()
	users := make([]string, 0, len(h.conns))
	for userID := range h.conns {
		users = append(users, userID)
	}
	h.mu.RUnlock()

	for _, userID := range users {
		_ = h.SendToUser(userID, payload)
	}
}

// Close shuts every connection down.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*connection
	for _, conns := range h.conns {
		all = append(all, conns...)
	}
	h.conns = make(map[string][]*connection)
	h.mu.Unlock()

	for _, conn := range all {
		conn.close()
	}
}

// writePump is the connection's single writer. It drains the send
// channel and keeps the connection alive with pings.
func (h *Hub) writePump(userID string, conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(userID, conn)
	}()

	for {
		select {
		case msg, ok := <-conn.send:
			if !ok {
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains control frames and detects the close. Client messages
// are not expected and are discarded.
func (h *Hub) readPump(userID string, conn *connection) {
	defer h.remove(userID, conn)

	conn.conn.SetReadLimit(512)
	conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(userID string, conn *connection) {
	h.mu.Lock()
	kept := h.conns[userID][:0]
	for _, c := range h.conns[userID] {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(h.conns, userID)
	} else {
		h.conns[userID] = kept
	}
	h.mu.Unlock()

	conn.close()
}
