package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var ErrMissingIndex = errors.New("move index is required")

func (that *Server) handleDiscoverRooms(_ context.Context, conn *Connection, _ *Message) error {
	that.hub.Send(conn.ID, entity.EventRoomList, that.manager.DiscoverRooms())

	return nil
}

func (that *Server) handleCreateRoom(ctx context.Context, conn *Connection, msg *Message) error {
	var req CreateRoomRequest

	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	if _, err := that.manager.CreateRoom(ctx, conn.ID, req.Size, req.Visibility, req.Opponent); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, conn *Connection, msg *Message) error {
	roomID, err := parseRoomID(msg.Payload)
	if err != nil {
		that.hub.Send(conn.ID, entity.EventError, entity.ErrorPayload{Message: entity.JoinFailedMessage})
		return err
	}

	if err = that.manager.JoinRoom(ctx, conn.ID, roomID); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, conn *Connection, msg *Message) error {
	var req MakeMoveRequest

	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if req.Index == nil {
		return ErrMissingIndex
	}

	if err := that.manager.MakeMove(ctx, conn.ID, req.RoomID, *req.Index); err != nil {
		return fmt.Errorf("move ignored: %w", err)
	}

	return nil
}

func (that *Server) handleRequestRematch(ctx context.Context, conn *Connection, msg *Message) error {
	roomID, err := parseRoomID(msg.Payload)
	if err != nil {
		return err
	}

	if err = that.manager.RequestRematch(ctx, conn.ID, roomID); err != nil {
		return fmt.Errorf("rematch request ignored: %w", err)
	}

	return nil
}

func (that *Server) handleRespondRematch(ctx context.Context, conn *Connection, msg *Message) error {
	var req RespondRematchRequest

	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.manager.RespondRematch(ctx, conn.ID, req.RoomID, req.Accept); err != nil {
		return fmt.Errorf("rematch response ignored: %w", err)
	}

	return nil
}
