package websocket

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Hub - registry of live connections and the outbound side of the game. It owns the online counter.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger.With("component", "hub"),
		connections: make(map[string]*Connection),
	}
}

// Send - queues an event for one connection. Unknown ids are ignored.
func (that *Hub) Send(connID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		that.logger.Error("failed to encode event", "event", event, "error", err)
		return
	}

	that.mu.RLock()
	conn, ok := that.connections[connID]
	that.mu.RUnlock()

	if ok {
		that.deliver(conn, data)
	}
}

// Broadcast - queues an event for every live connection.
func (that *Hub) Broadcast(event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		that.logger.Error("failed to encode event", "event", event, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	that.broadcastLocked(data)
}

func (that *Hub) IsLive(connID string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	_, ok := that.connections[connID]

	return ok
}

func (that *Hub) ConnectionCount() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.connections)
}

// register - adds the connection and pushes the new online count to everyone.
func (that *Hub) register(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connections[conn.ID] = conn
	that.pushCountLocked()
}

// unregister - removes the connection; false if it was already gone.
func (that *Hub) unregister(conn *Connection) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.connections[conn.ID]; !ok || current != conn {
		return false
	}

	delete(that.connections, conn.ID)
	conn.close()
	that.pushCountLocked()

	return true
}

// closeAll - closes every connection; used on shutdown.
func (that *Hub) closeAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for id, conn := range that.connections {
		conn.close()
		delete(that.connections, id)
	}
}

func (that *Hub) pushCountLocked() {
	data, err := encode(entity.EventOnlineUserCount, len(that.connections))
	if err != nil {
		that.logger.Error("failed to encode online count", "error", err)
		return
	}

	that.broadcastLocked(data)
}

func (that *Hub) broadcastLocked(data []byte) {
	for _, conn := range that.connections {
		that.deliver(conn, data)
	}
}

// deliver - a connection that cannot keep up is closed instead of stalling the sender.
// Frames for a connection that is already closing are dropped.
func (that *Hub) deliver(conn *Connection, data []byte) {
	if err := conn.enqueue(data); errors.Is(err, errQueueFull) {
		that.logger.Warn("send queue full, closing connection", "connID", conn.ID)
		conn.close()
	}
}
