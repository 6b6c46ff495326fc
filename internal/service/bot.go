package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/bot"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// BotService - plays the autonomous opponent's turns after a fixed delay, one pending turn per room.
type BotService interface {
	Schedule(roomID string, board *entity.Board, mark entity.Mark, play func(index int))
	Cancel(roomID string)
	Pending() int
}

type botService struct {
	logger *slog.Logger
	delay  time.Duration

	mu      sync.Mutex
	pending map[string]*pendingTurn
}

type pendingTurn struct {
	timer *time.Timer
}

func NewBotService(logger *slog.Logger, delay time.Duration) BotService {
	return &botService{
		logger:  logger.With("component", "bot"),
		delay:   delay,
		pending: make(map[string]*pendingTurn),
	}
}

// Schedule - after the delay picks a move on board and hands it to play. The board must be a snapshot
// the caller no longer mutates. A previously scheduled turn for the room is replaced.
func (that *botService) Schedule(roomID string, board *entity.Board, mark entity.Mark, play func(index int)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if previous, ok := that.pending[roomID]; ok {
		previous.timer.Stop()
	}

	turn := &pendingTurn{}
	turn.timer = time.AfterFunc(that.delay, func() {
		if !that.release(roomID, turn) {
			return
		}

		index, err := bot.ChooseMoveChecked(board, mark)
		if err != nil {
			that.logger.Error("bot failed to choose a move", "roomID", roomID, "error", err)
			return
		}

		play(index)
	})

	that.pending[roomID] = turn
}

// Cancel - drops the pending turn of the room, if any.
func (that *botService) Cancel(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if turn, ok := that.pending[roomID]; ok {
		turn.timer.Stop()
		delete(that.pending, roomID)
	}
}

func (that *botService) Pending() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.pending)
}

// release - removes the fired turn; false when it was cancelled or replaced meanwhile.
func (that *botService) release(roomID string, turn *pendingTurn) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.pending[roomID] != turn {
		return false
	}

	delete(that.pending, roomID)

	return true
}
