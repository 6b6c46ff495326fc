package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
)

type gameManager interface {
	CreateRoom(ctx context.Context, connID string, size int, visibility, opponent string) (string, error)
	JoinRoom(ctx context.Context, connID, roomID string) error
	MakeMove(ctx context.Context, connID, roomID string, index int) error
	RequestRematch(ctx context.Context, connID, roomID string) error
	RespondRematch(ctx context.Context, connID, roomID string, accept bool) error
	Disconnect(ctx context.Context, connID string)
	DiscoverRooms() []entity.RoomSummary
	Collect(ctx context.Context, isLive func(connID string) bool) int
}

type handlerFunc func(ctx context.Context, conn *Connection, message *Message) error

type Server struct {
	logger  *slog.Logger
	conf    config.WebSocket
	hub     *Hub
	manager gameManager

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, conf config.WebSocket, hub *Hub, manager gameManager) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		conf:    conf,
		hub:     hub,
		manager: manager,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[entity.ActionDiscoverRooms] = server.handleDiscoverRooms
	server.handlers[entity.ActionCreateRoom] = server.handleCreateRoom
	server.handlers[entity.ActionJoinRoom] = server.handleJoinRoom
	server.handlers[entity.ActionMakeMove] = server.handleMakeMove
	server.handlers[entity.ActionRequestRematch] = server.handleRequestRematch
	server.handlers[entity.ActionRespondRematch] = server.handleRespondRematch

	return server
}

// ServeWS - upgrades the request and starts the connection pumps.
func (that *Server) ServeWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeWS")

	wsConn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(pkg.GenerateConnectionID(), wsConn, that.conf.SendBuffer)
	that.hub.register(conn)

	// the request context ends with this handler, the connection outlives it
	ctx := context.WithoutCancel(req.Context())

	go conn.writePump(that)
	go conn.readPump(ctx, that)

	log.Info("WebSocket connection established", "connID", conn.ID)
}

// RunSweeper - periodically closes rooms held by connections the hub no longer knows. Blocks until ctx is done.
func (that *Server) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(that.conf.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.manager.Collect(ctx, that.hub.IsLive)
		}
	}
}

// Shutdown - closes every open connection.
func (that *Server) Shutdown() {
	that.hub.closeAll()
}

// handleMessage - processes one frame from the client. Malformed frames and unknown actions are dropped.
func (that *Server) handleMessage(ctx context.Context, conn *Connection, data []byte) {
	log := that.logger.With("method", "handleMessage", "connID", conn.ID)

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		return
	}

	if err := handler(ctx, conn, &message); err != nil {
		log.Debug("message rejected", "action", message.Action, "error", err)
	}
}

func (that *Server) disconnect(ctx context.Context, conn *Connection) {
	if !that.hub.unregister(conn) {
		return
	}

	that.manager.Disconnect(ctx, conn.ID)

	that.logger.Info("WebSocket connection closed", "connID", conn.ID)
}
