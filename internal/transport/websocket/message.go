package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMissingRoomID = errors.New("room id is required")

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateRoomRequest struct {
	Size       int    `json:"size"`
	Visibility string `json:"visibility"`
	Opponent   string `json:"opponent"`
}

type MakeMoveRequest struct {
	RoomID string `json:"roomId"`
	Index  *int   `json:"index"`
}

type RespondRematchRequest struct {
	RoomID string `json:"roomId"`
	Accept bool   `json:"accept"`
}

type roomRef struct {
	RoomID string `json:"roomId"`
}

// parseRoomID - accepts a bare JSON string or an object with roomId.
func parseRoomID(payload json.RawMessage) (string, error) {
	var roomID string
	if err := json.Unmarshal(payload, &roomID); err != nil {
		var ref roomRef
		if err = json.Unmarshal(payload, &ref); err != nil {
			return "", fmt.Errorf("failed to unmarshal room id: %w", err)
		}

		roomID = ref.RoomID
	}

	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return "", ErrMissingRoomID
	}

	return roomID, nil
}

func encode(event string, payload any) ([]byte, error) {
	message := Message{Action: event}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}

		message.Payload = raw
	}

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
