package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameNotFinished  = errors.New("game is not finished")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrBoardFull        = errors.New("board is full")
	ErrInvalidSize      = errors.New("invalid board size")

	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrAlreadySeated  = errors.New("player is already seated in this room")
	ErrNotSeated      = errors.New("player is not seated in this room")
	ErrNoRematchOffer = errors.New("no pending rematch offer")
)
