package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
)

const maxRoomIDAttempts = 10

var ErrRoomIDExhausted = errors.New("could not allocate a free room id")

// notifier - delivers events to connections. Implementations must not block.
type notifier interface {
	Send(connID, event string, payload any)
	Broadcast(event string, payload any)
}

type botService interface {
	Schedule(roomID string, board *entity.Board, mark entity.Mark, play func(index int))
	Cancel(roomID string)
}

type statsService interface {
	Record(ctx context.Context, counters ...string)
}

// BoardLimits - accepted board sizes; Default is used when a request omits the size.
type BoardLimits struct {
	Min     int
	Max     int
	Default int
}

type room struct {
	mu      sync.Mutex
	session *entity.Session
	closed  bool
}

// GameManager - registry of live rooms. The map lock only guards lookups and is never held while
// waiting for a room lock; every state change of a room happens under that room's own lock,
// together with the events it produces.
type GameManager struct {
	logger *slog.Logger

	notifier     notifier
	botService   botService
	statsService statsService
	limits       BoardLimits

	mu        sync.RWMutex
	rooms     map[string]*room
	connRooms map[string]map[string]struct{}
}

func NewGameManager(
	logger *slog.Logger,
	notifier notifier,
	botService botService,
	statsService statsService,
	limits BoardLimits,
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game-manager"),

		notifier:     notifier,
		botService:   botService,
		statsService: statsService,
		limits:       limits,

		rooms:     make(map[string]*room),
		connRooms: make(map[string]map[string]struct{}),
	}
}

// CreateRoom - opens a room with the creator seated as X. Size 0 selects the default size.
func (that *GameManager) CreateRoom(ctx context.Context, connID string, size int, visibility, opponent string) (string, error) {
	log := that.logger.With("method", "CreateRoom", "connID", connID)

	if size == 0 {
		size = that.limits.Default
	}

	if size < that.limits.Min || size > that.limits.Max {
		that.notifier.Send(connID, entity.EventError, entity.ErrorPayload{
			Message: fmt.Sprintf("Board size must be between %d and %d", that.limits.Min, that.limits.Max),
		})

		return "", fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	session, err := entity.NewSession("", size, visibility, opponent)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	counters, err := that.open(&room{session: session}, connID)
	if err != nil {
		return "", err
	}

	that.statsService.Record(ctx, counters...)

	log.Info("room created", "roomID", session.ID, "size", size, "visibility", session.Visibility, "opponent", session.Opponent)

	return session.ID, nil
}

// open - registers the room, seats the creator and, for bot rooms, the autonomous opponent.
func (that *GameManager) open(newRoom *room, connID string) ([]string, error) {
	session := newRoom.session

	newRoom.mu.Lock()
	defer newRoom.mu.Unlock()

	if err := that.insert(newRoom); err != nil {
		return nil, err
	}

	counters := []string{entity.CounterRoomsCreated}

	seats := []string{connID}
	if session.IsWithBot() {
		seats = append(seats, entity.BotID(session.ID))
		counters = append(counters, entity.CounterGamesStarted)
	}

	for _, seat := range seats {
		if _, err := session.Seat(seat); err != nil {
			that.remove(newRoom)
			return nil, fmt.Errorf("failed to seat %s: %w", seat, err)
		}
	}

	that.index(connID, session.ID)

	that.notifier.Send(connID, entity.EventRoomJoined, entity.RoomJoinedPayload{
		RoomID: session.ID,
		Mark:   entity.MarkX,
		Size:   session.Board.Size,
	})

	if session.IsWithBot() {
		that.multicast(session, entity.EventGameStart, gameStartPayload(session))
	}

	that.notifier.Broadcast(entity.EventRoomListChanged, nil)

	return counters, nil
}

// JoinRoom - seats connID as O. Any failure is reported to the joiner with the same generic message.
func (that *GameManager) JoinRoom(ctx context.Context, connID, roomID string) error {
	err := that.withRoom(roomID, func(r *room) error {
		session := r.session

		if !session.IsWaiting() || len(session.Players) != 1 {
			return apperror.ErrRoomFull
		}

		mark, err := session.Seat(connID)
		if err != nil {
			return fmt.Errorf("failed to seat player: %w", err)
		}

		that.index(connID, roomID)

		that.notifier.Send(connID, entity.EventRoomJoined, entity.RoomJoinedPayload{
			RoomID: roomID,
			Mark:   mark,
			Size:   session.Board.Size,
		})
		that.multicast(session, entity.EventGameStart, gameStartPayload(session))
		that.notifier.Broadcast(entity.EventRoomListChanged, nil)

		return nil
	})
	if err != nil {
		that.notifier.Send(connID, entity.EventError, entity.ErrorPayload{Message: entity.JoinFailedMessage})
		return err
	}

	that.statsService.Record(ctx, entity.CounterGamesStarted)

	that.logger.Info("player joined", "method", "JoinRoom", "roomID", roomID, "connID", connID)

	return nil
}

// MakeMove - applies a move for the seated connection. Rejected moves produce no events.
func (that *GameManager) MakeMove(ctx context.Context, connID, roomID string, index int) error {
	var counters []string

	err := that.withRoom(roomID, func(r *room) error {
		mark, ok := r.session.MarkOf(connID)
		if !ok {
			return apperror.ErrNotSeated
		}

		var err error
		counters, err = that.applyMove(r, mark, index)

		return err
	})
	if err != nil {
		return err
	}

	that.statsService.Record(ctx, counters...)

	return nil
}

// Disconnect - removes every room the connection sits in. An active match is forfeited to the remaining player,
// who alone hears opponent-left; finished and waiting rooms close quietly.
func (that *GameManager) Disconnect(ctx context.Context, connID string) {
	log := that.logger.With("method", "Disconnect", "connID", connID)

	removed := 0
	for _, roomID := range that.roomsOf(connID) {
		var counters []string

		err := that.withRoom(roomID, func(r *room) error {
			session := r.session

			mark, ok := session.MarkOf(connID)
			if !ok {
				return apperror.ErrNotSeated
			}

			wasActive := session.IsActive()
			winner := session.Forfeit(mark)

			if wasActive {
				counters = append(counters, entity.CounterGamesFinished, entity.CounterForfeits)
				that.multicastExcept(session, connID, entity.EventOpponentLeft, entity.OpponentLeftPayload{Winner: winner})
			}

			that.remove(r)

			return nil
		})
		if err != nil {
			continue
		}

		removed++
		that.statsService.Record(ctx, counters...)

		log.Info("room closed after disconnect", "roomID", roomID)
	}

	that.unindex(connID)

	if removed > 0 {
		that.notifier.Broadcast(entity.EventRoomListChanged, nil)
	}
}

// RequestRematch - forwards the offer to the opponent. The autonomous opponent accepts at once.
func (that *GameManager) RequestRematch(ctx context.Context, connID, roomID string) error {
	restarted := false

	err := that.withRoom(roomID, func(r *room) error {
		session := r.session

		mark, ok := session.MarkOf(connID)
		if !ok {
			return apperror.ErrNotSeated
		}

		if err := session.OfferRematch(mark); err != nil {
			return fmt.Errorf("failed to offer rematch: %w", err)
		}

		opponentID, _ := session.ConnOf(mark.Opponent())
		if !entity.IsBotID(opponentID) {
			that.notifier.Send(opponentID, entity.EventRematchOffer, entity.RematchOfferPayload{RoomID: roomID})
			return nil
		}

		if err := session.AcceptRematch(mark.Opponent()); err != nil {
			return fmt.Errorf("bot failed to accept rematch: %w", err)
		}

		that.restart(r)
		restarted = true

		return nil
	})
	if err != nil {
		return err
	}

	if restarted {
		that.statsService.Record(ctx, entity.CounterGamesStarted)
	}

	return nil
}

// RespondRematch - answers the opponent's pending offer. Accepting restarts the match with X to move.
func (that *GameManager) RespondRematch(ctx context.Context, connID, roomID string, accept bool) error {
	err := that.withRoom(roomID, func(r *room) error {
		session := r.session

		mark, ok := session.MarkOf(connID)
		if !ok {
			return apperror.ErrNotSeated
		}

		if !accept {
			offeredBy, err := session.DeclineRematch(mark)
			if err != nil {
				return fmt.Errorf("failed to decline rematch: %w", err)
			}

			if requesterID, ok := session.ConnOf(offeredBy); ok {
				that.notifier.Send(requesterID, entity.EventRematchDeclined, entity.RematchDeclinedPayload{RoomID: roomID})
			}

			return nil
		}

		if err := session.AcceptRematch(mark); err != nil {
			return fmt.Errorf("failed to accept rematch: %w", err)
		}

		that.restart(r)

		return nil
	})
	if err != nil {
		return err
	}

	if accept {
		that.statsService.Record(ctx, entity.CounterGamesStarted)
	}

	return nil
}

// DiscoverRooms - public rooms waiting for an opponent, ordered by id.
func (that *GameManager) DiscoverRooms() []entity.RoomSummary {
	summaries := make([]entity.RoomSummary, 0)

	for _, r := range that.snapshotRooms() {
		r.mu.Lock()
		if !r.closed && r.session.IsListed() {
			summaries = append(summaries, r.session.Summary())
		}
		r.mu.Unlock()
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

// GetRoom - copy of the room's session for read-only use.
func (that *GameManager) GetRoom(roomID string) (*entity.Session, error) {
	var session *entity.Session

	err := that.withRoom(roomID, func(r *room) error {
		session = r.session.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (that *GameManager) RoomCount() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

// Collect - disconnects seated connections that isLive no longer knows about. Returns the number of
// connections collected.
func (that *GameManager) Collect(ctx context.Context, isLive func(connID string) bool) int {
	dead := make(map[string]struct{})

	for _, r := range that.snapshotRooms() {
		r.mu.Lock()
		if !r.closed {
			for _, connID := range r.session.Connections() {
				if !entity.IsBotID(connID) && !isLive(connID) {
					dead[connID] = struct{}{}
				}
			}
		}
		r.mu.Unlock()
	}

	for connID := range dead {
		that.Disconnect(ctx, connID)
	}

	if len(dead) > 0 {
		that.logger.Info("collected stale connections", "method", "Collect", "count", len(dead))
	}

	return len(dead)
}

// applyMove - places the mark and emits the outcome. Caller holds the room lock.
func (that *GameManager) applyMove(r *room, mark entity.Mark, index int) ([]string, error) {
	session := r.session

	result, err := gomoku.MakeTurn(session, mark, index)
	if err != nil {
		return nil, fmt.Errorf("failed make turn: %w", err)
	}

	var nextTurn *entity.Mark
	if !result.IsFinal() {
		next := result.NextTurn
		nextTurn = &next
	}

	if result.IsFinal() {
		that.multicast(session, entity.EventGameOver, entity.GameOverPayload{Winner: result.Winner, Line: result.Line})
	}

	that.multicast(session, entity.EventMoveApplied, entity.MoveAppliedPayload{
		Index:    result.Move.Index,
		Mark:     result.Move.Mark,
		NextTurn: nextTurn,
	})

	if result.IsFinal() {
		that.botService.Cancel(session.ID)

		counters := []string{entity.CounterGamesFinished}
		if result.Winner == entity.OutcomeDraw {
			counters = append(counters, entity.CounterDraws)
		}

		return counters, nil
	}

	that.scheduleBot(r)

	return nil, nil
}

// restart - announces a reset match. Caller holds the room lock.
func (that *GameManager) restart(r *room) {
	that.botService.Cancel(r.session.ID)
	that.multicast(r.session, entity.EventGameReset, entity.GameResetPayload{Turn: r.session.Turn})
	that.scheduleBot(r)
}

// scheduleBot - queues the autonomous opponent when it is to move. Caller holds the room lock.
func (that *GameManager) scheduleBot(r *room) {
	session := r.session
	if !session.IsWithBot() || !session.IsActive() {
		return
	}

	connID, ok := session.ConnOf(session.Turn)
	if !ok || !entity.IsBotID(connID) {
		return
	}

	roomID := session.ID
	mark := session.Turn

	that.botService.Schedule(roomID, session.Board.Clone(), mark, func(index int) {
		that.playBot(roomID, mark, index)
	})
}

func (that *GameManager) playBot(roomID string, mark entity.Mark, index int) {
	log := that.logger.With("method", "playBot", "roomID", roomID)

	var counters []string

	err := that.withRoom(roomID, func(r *room) error {
		connID, ok := r.session.ConnOf(mark)
		if !ok || !entity.IsBotID(connID) {
			return apperror.ErrNotSeated
		}

		var err error
		counters, err = that.applyMove(r, mark, index)

		return err
	})
	if err != nil {
		log.Debug("bot move dropped", "error", err)
		return
	}

	that.statsService.Record(context.Background(), counters...)
}

// withRoom - runs fn under the room lock. Closed rooms are reported as not found.
func (that *GameManager) withRoom(roomID string, fn func(r *room) error) error {
	that.mu.RLock()
	r, ok := that.rooms[roomID]
	that.mu.RUnlock()

	if !ok {
		return apperror.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return apperror.ErrRoomNotFound
	}

	return fn(r)
}

// insert - allocates a free id and registers the room. Caller holds the room lock.
func (that *GameManager) insert(r *room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	for range maxRoomIDAttempts {
		roomID, err := pkg.GenerateRoomID()
		if err != nil {
			return fmt.Errorf("error generating room ID: %w", err)
		}

		if _, taken := that.rooms[roomID]; taken {
			continue
		}

		r.session.ID = roomID
		that.rooms[roomID] = r

		return nil
	}

	return ErrRoomIDExhausted
}

// remove - closes the room and drops it from the registry. Caller holds the room lock.
func (that *GameManager) remove(r *room) {
	r.closed = true
	that.botService.Cancel(r.session.ID)

	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, r.session.ID)

	for _, connID := range r.session.Connections() {
		if rooms, ok := that.connRooms[connID]; ok {
			delete(rooms, r.session.ID)
			if len(rooms) == 0 {
				delete(that.connRooms, connID)
			}
		}
	}
}

func (that *GameManager) index(connID, roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.indexLocked(connID, roomID)
}

func (that *GameManager) indexLocked(connID, roomID string) {
	rooms, ok := that.connRooms[connID]
	if !ok {
		rooms = make(map[string]struct{})
		that.connRooms[connID] = rooms
	}

	rooms[roomID] = struct{}{}
}

func (that *GameManager) unindex(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.connRooms, connID)
}

func (that *GameManager) roomsOf(connID string) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	roomIDs := make([]string, 0, len(that.connRooms[connID]))
	for roomID := range that.connRooms[connID] {
		roomIDs = append(roomIDs, roomID)
	}

	return roomIDs
}

func (that *GameManager) snapshotRooms() []*room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*room, 0, len(that.rooms))
	for _, r := range that.rooms {
		rooms = append(rooms, r)
	}

	return rooms
}

func (that *GameManager) multicast(session *entity.Session, event string, payload any) {
	that.multicastExcept(session, "", event, payload)
}

func (that *GameManager) multicastExcept(session *entity.Session, skipID, event string, payload any) {
	for _, connID := range session.Connections() {
		if connID == skipID || entity.IsBotID(connID) {
			continue
		}

		that.notifier.Send(connID, event, payload)
	}
}

func gameStartPayload(session *entity.Session) entity.GameStartPayload {
	players := make(map[entity.Mark]string, len(session.Players))
	for mark, connID := range session.Players {
		players[mark] = connID
	}

	return entity.GameStartPayload{
		RoomID:  session.ID,
		Players: players,
		Turn:    session.Turn,
	}
}
