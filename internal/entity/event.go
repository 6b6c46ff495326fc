package entity

// Outbound and inbound event names of the realtime protocol.
const (
	ActionDiscoverRooms  = "discover-rooms"
	ActionCreateRoom     = "create-room"
	ActionJoinRoom       = "join-room"
	ActionMakeMove       = "make-move"
	ActionRequestRematch = "request-rematch"
	ActionRespondRematch = "respond-rematch"

	EventRoomList        = "room-list"
	EventRoomJoined      = "room-joined"
	EventError           = "error"
	EventGameStart       = "game-start"
	EventMoveApplied     = "move-applied"
	EventGameOver        = "game-over"
	EventRematchOffer    = "rematch-offer"
	EventRematchDeclined = "rematch-declined"
	EventGameReset       = "game-reset"
	EventOpponentLeft    = "opponent-left"
	EventOnlineUserCount = "online-user-count"
	EventRoomListChanged = "room-list-changed"
)

// JoinFailedMessage - the only detail a failed join reveals.
const JoinFailedMessage = "Room full or not found"

type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
	Mark   Mark   `json:"mark"`
	Size   int    `json:"size"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type GameStartPayload struct {
	RoomID  string          `json:"roomId"`
	Players map[Mark]string `json:"players"`
	Turn    Mark            `json:"turn"`
}

type MoveAppliedPayload struct {
	Index    int   `json:"index"`
	Mark     Mark  `json:"mark"`
	NextTurn *Mark `json:"nextTurn"`
}

type GameOverPayload struct {
	Winner Outcome `json:"winner"`
	Line   []int   `json:"line,omitempty"`
}

type RematchOfferPayload struct {
	RoomID string `json:"roomId"`
}

type RematchDeclinedPayload struct {
	RoomID string `json:"roomId"`
}

type GameResetPayload struct {
	Turn Mark `json:"turn"`
}

type OpponentLeftPayload struct {
	Winner Outcome `json:"winner"`
}
