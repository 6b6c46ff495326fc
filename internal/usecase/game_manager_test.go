package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/bot"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const everyone = "*"

type sentEvent struct {
	ConnID  string
	Event   string
	Payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (that *recordingNotifier) Send(connID, event string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, sentEvent{ConnID: connID, Event: event, Payload: payload})
}

func (that *recordingNotifier) Broadcast(event string, payload any) {
	that.Send(everyone, event, payload)
}

// For - events delivered to connID, in order.
func (that *recordingNotifier) For(connID string) []sentEvent {
	that.mu.Lock()
	defer that.mu.Unlock()

	events := make([]sentEvent, 0)
	for _, event := range that.events {
		if event.ConnID == connID {
			events = append(events, event)
		}
	}

	return events
}

func (that *recordingNotifier) Names(connID string) []string {
	names := make([]string, 0)
	for _, event := range that.For(connID) {
		names = append(names, event.Event)
	}

	return names
}

func (that *recordingNotifier) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = nil
}

// manualBot - keeps scheduled turns until the test fires them.
type manualBot struct {
	mu      sync.Mutex
	pending map[string]func()
}

func newManualBot() *manualBot {
	return &manualBot{pending: make(map[string]func())}
}

func (that *manualBot) Schedule(roomID string, board *entity.Board, mark entity.Mark, play func(index int)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pending[roomID] = func() {
		play(bot.ChooseMove(board, mark))
	}
}

func (that *manualBot) Cancel(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.pending, roomID)
}

func (that *manualBot) Fire(roomID string) bool {
	that.mu.Lock()
	play, ok := that.pending[roomID]
	delete(that.pending, roomID)
	that.mu.Unlock()

	if ok {
		play()
	}

	return ok
}

type countingStats struct {
	mu       sync.Mutex
	counters map[string]int
}

func (that *countingStats) Record(_ context.Context, counters ...string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.counters == nil {
		that.counters = make(map[string]int)
	}

	for _, counter := range counters {
		that.counters[counter]++
	}
}

func (that *countingStats) Count(counter string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.counters[counter]
}

type fixture struct {
	manager  *GameManager
	notifier *recordingNotifier
	bot      *manualBot
	stats    *countingStats
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	f := &fixture{
		notifier: &recordingNotifier{},
		bot:      newManualBot(),
		stats:    &countingStats{},
	}
	f.manager = NewGameManager(logger, f.notifier, f.bot, f.stats, BoardLimits{Min: 5, Max: 20, Default: 15})

	return f
}

// activeRoom - x created a public room of size and o joined it.
func (that *fixture) activeRoom(t *testing.T, size int) string {
	t.Helper()

	roomID, err := that.manager.CreateRoom(context.Background(), "x", size, entity.PublicType, entity.OpponentHuman)
	require.NoError(t, err)
	require.NoError(t, that.manager.JoinRoom(context.Background(), "o", roomID))

	that.notifier.Reset()

	return roomID
}

// finishedRoom - x won on row 0 of a 5x5 board.
func (that *fixture) finishedRoom(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	roomID := that.activeRoom(t, 5)

	for col := 0; col < 4; col++ {
		require.NoError(t, that.manager.MakeMove(ctx, "x", roomID, col))
		require.NoError(t, that.manager.MakeMove(ctx, "o", roomID, 5+col))
	}
	require.NoError(t, that.manager.MakeMove(ctx, "x", roomID, 4))

	that.notifier.Reset()

	return roomID
}

func markPtr(mark entity.Mark) *entity.Mark {
	return &mark
}

func TestGameManager_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Creator is seated as X and the lobby is notified", func(t *testing.T) {
		// Given: an empty registry
		f := newFixture(t)

		// When: a public room of size 15 is created
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentHuman)

		// Then: the creator receives room-joined and everyone room-list-changed
		require.NoError(t, err)
		assert.Equal(t, []sentEvent{{
			ConnID:  "x",
			Event:   entity.EventRoomJoined,
			Payload: entity.RoomJoinedPayload{RoomID: roomID, Mark: entity.MarkX, Size: 15},
		}}, f.notifier.For("x"))
		assert.Equal(t, []string{entity.EventRoomListChanged}, f.notifier.Names(everyone))

		// And: the room is discoverable and waiting
		assert.Equal(t, []entity.RoomSummary{{ID: roomID, Size: 15, Players: 1}}, f.manager.DiscoverRooms())

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateWaiting, session.State())
		assert.Equal(t, 1, f.stats.Count(entity.CounterRoomsCreated))
	})

	t.Run("Omitted size uses the default", func(t *testing.T) {
		f := newFixture(t)

		roomID, err := f.manager.CreateRoom(ctx, "x", 0, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, 15, session.Board.Size)
	})

	t.Run("Out of range size is reported to the requester only", func(t *testing.T) {
		// Given: an empty registry
		f := newFixture(t)

		// When: a room of size 21 is requested
		_, err := f.manager.CreateRoom(ctx, "x", 21, entity.PublicType, entity.OpponentHuman)

		// Then: ErrInvalidSize, an error event and no room
		require.ErrorIs(t, err, apperror.ErrInvalidSize)
		assert.Equal(t, []string{entity.EventError}, f.notifier.Names("x"))
		assert.Empty(t, f.notifier.For(everyone))
		assert.Zero(t, f.manager.RoomCount())
	})

	t.Run("Private room is not listed", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.manager.CreateRoom(ctx, "x", 15, entity.PrivateType, entity.OpponentHuman)
		require.NoError(t, err)

		assert.Empty(t, f.manager.DiscoverRooms())
		assert.Equal(t, 1, f.manager.RoomCount())
	})
}

func TestGameManager_JoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Joiner is seated as O and the match starts", func(t *testing.T) {
		// Given: a waiting room
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)
		f.notifier.Reset()

		// When: o joins
		err = f.manager.JoinRoom(ctx, "o", roomID)

		// Then: o receives room-joined then game-start, x receives game-start
		require.NoError(t, err)
		assert.Equal(t, []string{entity.EventRoomJoined, entity.EventGameStart}, f.notifier.Names("o"))
		assert.Equal(t, []string{entity.EventGameStart}, f.notifier.Names("x"))
		assert.Equal(t, entity.RoomJoinedPayload{RoomID: roomID, Mark: entity.MarkO, Size: 15}, f.notifier.For("o")[0].Payload)
		assert.Equal(t, []string{entity.EventRoomListChanged}, f.notifier.Names(everyone))

		// And: the room is active and no longer listed
		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateActive, session.State())
		assert.Empty(t, f.manager.DiscoverRooms())
		assert.Equal(t, 1, f.stats.Count(entity.CounterGamesStarted))
	})

	t.Run("Second join fails without changing the room", func(t *testing.T) {
		// Given: an active room
		f := newFixture(t)
		roomID := f.activeRoom(t, 15)

		// When: a third connection joins
		err := f.manager.JoinRoom(ctx, "late", roomID)

		// Then: it receives the generic error and nobody else hears anything
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Equal(t, []sentEvent{{
			ConnID:  "late",
			Event:   entity.EventError,
			Payload: entity.ErrorPayload{Message: entity.JoinFailedMessage},
		}}, f.notifier.For("late"))
		assert.Empty(t, f.notifier.For("x"))
		assert.Empty(t, f.notifier.For("o"))

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "o"}, session.Connections())
	})

	t.Run("Unknown room fails with the same message", func(t *testing.T) {
		f := newFixture(t)

		err := f.manager.JoinRoom(ctx, "o", "missing")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Equal(t, entity.ErrorPayload{Message: entity.JoinFailedMessage}, f.notifier.For("o")[0].Payload)
	})

	t.Run("Creator cannot join its own room", func(t *testing.T) {
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)
		f.notifier.Reset()

		err = f.manager.JoinRoom(ctx, "x", roomID)

		require.ErrorIs(t, err, apperror.ErrAlreadySeated)
		assert.Equal(t, []string{entity.EventError}, f.notifier.Names("x"))
		assert.Len(t, f.manager.DiscoverRooms(), 1)
	})
}

func TestGameManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Move-applied announces the next turn to both players", func(t *testing.T) {
		// Given: an active 15x15 room
		f := newFixture(t)
		roomID := f.activeRoom(t, 15)

		// When: X plays the center and O plays next to it
		require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, 112))
		require.NoError(t, f.manager.MakeMove(ctx, "o", roomID, 113))

		// Then: the last move-applied carries nextTurn X for both players
		for _, connID := range []string{"x", "o"} {
			events := f.notifier.For(connID)
			require.Len(t, events, 2)
			assert.Equal(t, entity.MoveAppliedPayload{Index: 112, Mark: entity.MarkX, NextTurn: markPtr(entity.MarkO)}, events[0].Payload)
			assert.Equal(t, entity.MoveAppliedPayload{Index: 113, Mark: entity.MarkO, NextTurn: markPtr(entity.MarkX)}, events[1].Payload)
		}
	})

	t.Run("Invalid moves are silently ignored", func(t *testing.T) {
		// Given: an active room where X has played the center
		f := newFixture(t)
		roomID := f.activeRoom(t, 15)
		require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, 112))
		f.notifier.Reset()

		// When: a series of invalid moves is attempted
		tests := []struct {
			connID string
			roomID string
			index  int
			err    error
		}{
			{"x", roomID, 0, apperror.ErrNotYourTurn},
			{"o", roomID, 112, apperror.ErrCellOccupied},
			{"o", roomID, 225, apperror.ErrInvalidCell},
			{"o", roomID, -1, apperror.ErrInvalidCell},
			{"stranger", roomID, 0, apperror.ErrNotSeated},
			{"o", "missing", 0, apperror.ErrRoomNotFound},
		}

		for _, tt := range tests {
			err := f.manager.MakeMove(ctx, tt.connID, tt.roomID, tt.index)
			require.ErrorIs(t, err, tt.err, "%s -> %d", tt.connID, tt.index)
		}

		// Then: nobody received anything and the state is unchanged
		assert.Empty(t, f.notifier.For("x"))
		assert.Empty(t, f.notifier.For("o"))

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Len(t, session.History, 1)
		assert.Equal(t, entity.MarkO, session.Turn)
	})

	t.Run("Move before the opponent joins is ignored", func(t *testing.T) {
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)
		f.notifier.Reset()

		err = f.manager.MakeMove(ctx, "x", roomID, 0)

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.Empty(t, f.notifier.For("x"))
	})

	t.Run("Winning move sends game-over before move-applied", func(t *testing.T) {
		// Given: X has four on row 0 of a 5x5 board
		f := newFixture(t)
		roomID := f.activeRoom(t, 5)
		for col := 0; col < 4; col++ {
			require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, col))
			require.NoError(t, f.manager.MakeMove(ctx, "o", roomID, 5+col))
		}
		f.notifier.Reset()

		// When: X completes the row
		require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, 4))

		// Then: both players see game-over with the line, then move-applied without a next turn
		for _, connID := range []string{"x", "o"} {
			assert.Equal(t, []sentEvent{
				{ConnID: connID, Event: entity.EventGameOver, Payload: entity.GameOverPayload{Winner: entity.OutcomeX, Line: []int{0, 1, 2, 3, 4}}},
				{ConnID: connID, Event: entity.EventMoveApplied, Payload: entity.MoveAppliedPayload{Index: 4, Mark: entity.MarkX}},
			}, f.notifier.For(connID))
		}

		// And: further moves are ignored
		require.ErrorIs(t, f.manager.MakeMove(ctx, "o", roomID, 20), apperror.ErrGameFinished)
		assert.Equal(t, 1, f.stats.Count(entity.CounterGamesFinished))
	})
}

func TestGameManager_Disconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Leaving an active match forfeits it to the opponent", func(t *testing.T) {
		// Given: an active room
		f := newFixture(t)
		roomID := f.activeRoom(t, 15)

		// When: X disconnects
		f.manager.Disconnect(ctx, "x")

		// Then: O is told it won, the room is gone and the lobby is notified
		assert.Equal(t, []sentEvent{{
			ConnID:  "o",
			Event:   entity.EventOpponentLeft,
			Payload: entity.OpponentLeftPayload{Winner: entity.OutcomeO},
		}}, f.notifier.For("o"))
		assert.Empty(t, f.notifier.For("x"))
		assert.Equal(t, []string{entity.EventRoomListChanged}, f.notifier.Names(everyone))

		_, err := f.manager.GetRoom(roomID)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Equal(t, 1, f.stats.Count(entity.CounterForfeits))
	})

	t.Run("Leaving a waiting room removes it quietly", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)
		f.notifier.Reset()

		f.manager.Disconnect(ctx, "x")

		assert.Zero(t, f.manager.RoomCount())
		assert.Empty(t, f.manager.DiscoverRooms())
		assert.Equal(t, []string{entity.EventRoomListChanged}, f.notifier.Names(everyone))
		assert.Zero(t, f.stats.Count(entity.CounterForfeits))
	})

	t.Run("Leaving a finished match closes it quietly", func(t *testing.T) {
		for _, leaver := range []string{"o", "x"} {
			// Given: a match X has won
			f := newFixture(t)
			f.finishedRoom(t)
			remaining := "x"
			if leaver == "x" {
				remaining = "o"
			}

			// When: either player leaves
			f.manager.Disconnect(ctx, leaver)

			// Then: the other player is not told about a forfeit
			assert.Empty(t, f.notifier.For(remaining), "%s left", leaver)
			assert.Equal(t, []string{entity.EventRoomListChanged}, f.notifier.Names(everyone))
			assert.Zero(t, f.stats.Count(entity.CounterForfeits))
			assert.Zero(t, f.manager.RoomCount())
		}
	})

	t.Run("Connection in several rooms closes all of them", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)
		_, err = f.manager.CreateRoom(ctx, "x", 9, entity.PrivateType, entity.OpponentHuman)
		require.NoError(t, err)
		_, err = f.manager.CreateRoom(ctx, "other", 9, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)

		f.manager.Disconnect(ctx, "x")

		assert.Equal(t, 1, f.manager.RoomCount())
	})

	t.Run("Unknown connection is a no-op", func(t *testing.T) {
		f := newFixture(t)

		f.manager.Disconnect(ctx, "ghost")

		assert.Empty(t, f.notifier.For(everyone))
	})
}

func TestGameManager_Rematch(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepted rematch resets the room for both players", func(t *testing.T) {
		// Given: a finished match
		f := newFixture(t)
		roomID := f.finishedRoom(t)

		// When: X requests a rematch
		require.NoError(t, f.manager.RequestRematch(ctx, "x", roomID))

		// Then: only O receives the offer
		assert.Equal(t, []string{entity.EventRematchOffer}, f.notifier.Names("o"))
		assert.Empty(t, f.notifier.For("x"))
		f.notifier.Reset()

		// When: O accepts
		require.NoError(t, f.manager.RespondRematch(ctx, "o", roomID, true))

		// Then: both see game-reset with X to move and the board is clean
		for _, connID := range []string{"x", "o"} {
			assert.Equal(t, []sentEvent{{
				ConnID: connID, Event: entity.EventGameReset, Payload: entity.GameResetPayload{Turn: entity.MarkX},
			}}, f.notifier.For(connID))
		}

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateActive, session.State())
		assert.True(t, session.Board.IsEmpty())
		assert.Len(t, session.Board.Cells, 25)
		assert.Empty(t, session.History)
		assert.Equal(t, entity.OutcomeNone, session.Winner)
	})

	t.Run("Declined rematch is reported to the requester only", func(t *testing.T) {
		// Given: a finished match with an offer from O
		f := newFixture(t)
		roomID := f.finishedRoom(t)
		require.NoError(t, f.manager.RequestRematch(ctx, "o", roomID))
		f.notifier.Reset()

		// When: X declines
		require.NoError(t, f.manager.RespondRematch(ctx, "x", roomID, false))

		// Then: O hears about it and the match stays finished
		assert.Equal(t, []string{entity.EventRematchDeclined}, f.notifier.Names("o"))
		assert.Empty(t, f.notifier.For("x"))

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateFinished, session.State())
	})

	t.Run("Rematch during a running match is ignored", func(t *testing.T) {
		f := newFixture(t)
		roomID := f.activeRoom(t, 15)

		err := f.manager.RequestRematch(ctx, "x", roomID)

		require.ErrorIs(t, err, apperror.ErrGameNotFinished)
		assert.Empty(t, f.notifier.For("o"))
	})

	t.Run("Response without an offer is ignored", func(t *testing.T) {
		f := newFixture(t)
		roomID := f.finishedRoom(t)

		err := f.manager.RespondRematch(ctx, "o", roomID, true)

		require.ErrorIs(t, err, apperror.ErrNoRematchOffer)
		assert.Empty(t, f.notifier.For("x"))
		assert.Empty(t, f.notifier.For("o"))
	})
}

func TestGameManager_BotRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Bot room starts at once and is never listed", func(t *testing.T) {
		// When: a bot room is created
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentBot)
		require.NoError(t, err)

		// Then: the human gets room-joined and game-start
		assert.Equal(t, []string{entity.EventRoomJoined, entity.EventGameStart}, f.notifier.Names("x"))
		assert.Empty(t, f.manager.DiscoverRooms())

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateActive, session.State())
		assert.Equal(t, entity.BotID(roomID), session.Players[entity.MarkO])
	})

	t.Run("Bot answers after the human move", func(t *testing.T) {
		// Given: a bot room where the human played the center
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentBot)
		require.NoError(t, err)
		require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, 112))
		f.notifier.Reset()

		// When: the scheduled bot turn fires
		require.True(t, f.bot.Fire(roomID))

		// Then: the human sees the bot's move and it is X's turn again
		events := f.notifier.For("x")
		require.Len(t, events, 1)
		payload, ok := events[0].Payload.(entity.MoveAppliedPayload)
		require.True(t, ok)
		assert.Equal(t, entity.MarkO, payload.Mark)
		assert.Equal(t, markPtr(entity.MarkX), payload.NextTurn)

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Len(t, session.History, 2)
	})

	t.Run("Bot turn is dropped when the human leaves", func(t *testing.T) {
		// Given: a pending bot turn
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentBot)
		require.NoError(t, err)
		require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, 112))

		// When: the human disconnects
		f.manager.Disconnect(ctx, "x")

		// Then: the pending turn was cancelled
		assert.False(t, f.bot.Fire(roomID))
		assert.Zero(t, f.manager.RoomCount())
	})

	t.Run("Bot accepts a rematch at once", func(t *testing.T) {
		// Given: a finished bot room
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 5, entity.PublicType, entity.OpponentBot)
		require.NoError(t, err)

		for i := 0; i < 20; i++ {
			session, err := f.manager.GetRoom(roomID)
			require.NoError(t, err)
			if session.IsFinished() {
				break
			}

			empty := session.Board.EmptyCells()
			require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, empty[0]))
			f.bot.Fire(roomID)
		}

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		require.True(t, session.IsFinished())
		f.notifier.Reset()

		// When: the human requests a rematch
		require.NoError(t, f.manager.RequestRematch(ctx, "x", roomID))

		// Then: the room resets immediately
		assert.Equal(t, []string{entity.EventGameReset}, f.notifier.Names("x"))

		session, err = f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Equal(t, entity.StateActive, session.State())
	})
}

func TestGameManager_Collect(t *testing.T) {
	// Given: an active room where X's connection is gone
	ctx := context.Background()
	f := newFixture(t)
	roomID := f.activeRoom(t, 15)

	// When: the collector runs
	collected := f.manager.Collect(ctx, func(connID string) bool { return connID != "x" })

	// Then: the room is closed as if X disconnected
	assert.Equal(t, 1, collected)
	assert.Equal(t, entity.OpponentLeftPayload{Winner: entity.OutcomeO}, f.notifier.For("o")[0].Payload)

	_, err := f.manager.GetRoom(roomID)
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)
}

func TestGameManager_Concurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("Exactly one of many joiners gets the seat", func(t *testing.T) {
		// Given: a waiting room
		f := newFixture(t)
		roomID, err := f.manager.CreateRoom(ctx, "x", 15, entity.PublicType, entity.OpponentHuman)
		require.NoError(t, err)

		// When: 50 connections join at once
		var (
			wg     sync.WaitGroup
			joined atomic.Int32
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(connID string) {
				defer wg.Done()
				if f.manager.JoinRoom(ctx, connID, roomID) == nil {
					joined.Add(1)
				}
			}(fmt.Sprintf("joiner-%d", i))
		}
		wg.Wait()

		// Then: exactly one succeeded
		assert.Equal(t, int32(1), joined.Load())

		session, err := f.manager.GetRoom(roomID)
		require.NoError(t, err)
		assert.Len(t, session.Players, 2)
	})

	t.Run("Move racing a disconnect is applied whole or not at all", func(t *testing.T) {
		for run := 0; run < 200; run++ {
			// Given: an active room where O is to move
			f := newFixture(t)
			roomID := f.activeRoom(t, 15)
			require.NoError(t, f.manager.MakeMove(ctx, "x", roomID, 112))
			f.notifier.Reset()

			// When: O moves while X disconnects
			var (
				wg      sync.WaitGroup
				moveErr error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				moveErr = f.manager.MakeMove(ctx, "o", roomID, 113)
			}()
			go func() {
				defer wg.Done()
				f.manager.Disconnect(ctx, "x")
			}()
			wg.Wait()

			// Then: O sees the move then the forfeit, or only the forfeit
			forfeit := sentEvent{ConnID: "o", Event: entity.EventOpponentLeft, Payload: entity.OpponentLeftPayload{Winner: entity.OutcomeO}}
			if moveErr == nil {
				assert.Equal(t, []sentEvent{
					{ConnID: "o", Event: entity.EventMoveApplied, Payload: entity.MoveAppliedPayload{Index: 113, Mark: entity.MarkO, NextTurn: markPtr(entity.MarkX)}},
					forfeit,
				}, f.notifier.For("o"), "run %d", run)
			} else {
				require.ErrorIs(t, moveErr, apperror.ErrRoomNotFound, "run %d", run)
				assert.Equal(t, []sentEvent{forfeit}, f.notifier.For("o"), "run %d", run)
			}

			// And: the room is gone for good
			_, err := f.manager.GetRoom(roomID)
			require.ErrorIs(t, err, apperror.ErrRoomNotFound)
			require.ErrorIs(t, f.manager.MakeMove(ctx, "o", roomID, 114), apperror.ErrRoomNotFound)
			assert.Zero(t, f.manager.RoomCount())
		}
	})

	t.Run("Independent rooms progress in parallel", func(t *testing.T) {
		// Given: many active rooms
		f := newFixture(t)
		roomIDs := make([]string, 20)
		for i := range roomIDs {
			roomID, err := f.manager.CreateRoom(ctx, fmt.Sprintf("x-%d", i), 15, entity.PublicType, entity.OpponentHuman)
			require.NoError(t, err)
			require.NoError(t, f.manager.JoinRoom(ctx, fmt.Sprintf("o-%d", i), roomID))
			roomIDs[i] = roomID
		}

		// When: every room plays ten moves concurrently while the lobby is polled
		var wg sync.WaitGroup
		for i, roomID := range roomIDs {
			wg.Add(1)
			go func(i int, roomID string) {
				defer wg.Done()
				for move := 0; move < 10; move++ {
					connID := fmt.Sprintf("x-%d", i)
					if move%2 == 1 {
						connID = fmt.Sprintf("o-%d", i)
					}
					assert.NoError(t, f.manager.MakeMove(ctx, connID, roomID, move*15))
					_ = f.manager.DiscoverRooms()
				}
			}(i, roomID)
		}
		wg.Wait()

		// Then: each room recorded its ten moves in order
		for _, roomID := range roomIDs {
			session, err := f.manager.GetRoom(roomID)
			require.NoError(t, err)
			require.Len(t, session.History, 10)
			for i, move := range session.History {
				assert.Equal(t, i*15, move.Index)
			}
		}
	})
}
