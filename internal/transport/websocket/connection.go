package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	errConnectionClosed = errors.New("connection is closed")
	errQueueFull        = errors.New("send queue is full")
)

// Connection - one client socket. Outbound frames go through send and are written by writePump only.
type Connection struct {
	ID   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newConnection(id string, conn *websocket.Conn, buffer int) *Connection {
	return &Connection{
		ID:   id,
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

// enqueue - never blocks; errConnectionClosed or errQueueFull when the frame is not queued.
func (that *Connection) enqueue(data []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return errConnectionClosed
	}

	select {
	case that.send <- data:
		return nil
	default:
		return errQueueFull
	}
}

// close - stops the write side; writePump sends a close frame and exits.
func (that *Connection) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}

// readPump - reads frames until the socket fails, then unregisters the connection.
func (that *Connection) readPump(ctx context.Context, server *Server) {
	log := server.logger.With("method", "readPump", "connID", that.ID)
	conf := server.conf

	defer func() {
		server.disconnect(ctx, that)
		_ = that.conn.Close()
	}()

	that.conn.SetReadLimit(conf.ReadLimit)

	if err := that.conn.SetReadDeadline(time.Now().Add(conf.PongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(conf.PongWait))
	})

	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		if messageType == websocket.TextMessage {
			server.handleMessage(ctx, that, data)
		}
	}
}

// writePump - drains send and keeps the socket alive with pings.
func (that *Connection) writePump(server *Server) {
	log := server.logger.With("method", "writePump", "connID", that.ID)
	conf := server.conf

	ticker := time.NewTicker(conf.PingInterval)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data, ok := <-that.send:
			if err := that.conn.SetWriteDeadline(time.Now().Add(conf.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := that.conn.SetWriteDeadline(time.Now().Add(conf.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to write ping", "error", err)
				return
			}
		}
	}
}
