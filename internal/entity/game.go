package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeX    Outcome = "X"
	OutcomeO    Outcome = "O"
	OutcomeDraw Outcome = "Draw"
)

// OutcomeOf - converts a winning mark into an outcome.
func OutcomeOf(mark Mark) Outcome {
	switch mark {
	case MarkX:
		return OutcomeX
	case MarkO:
		return OutcomeO
	default:
		return OutcomeNone
	}
}

type State string

const (
	StateWaiting  State = "waiting"
	StateActive   State = "active"
	StateFinished State = "finished"
)

const (
	PublicType  = "public"
	PrivateType = "private"

	OpponentHuman = "human"
	OpponentBot   = "bot"
)

// Move - a single accepted placement, immutable once recorded.
type Move struct {
	Mark  Mark `json:"mark"`
	Index int  `json:"index"`
}

// Session - one match between two seats. Invariants: len(Board.Cells) == Size*Size,
// at most two seats, no board mutation once Winner is set, History only grows until Reset.
type Session struct {
	ID         string          `json:"id"`
	Board      *Board          `json:"board"`
	Turn       Mark            `json:"turn"`
	Players    map[Mark]string `json:"-"`
	Winner     Outcome         `json:"winner"`
	Line       []int           `json:"line,omitempty"`
	History    []Move          `json:"history"`
	Visibility string          `json:"visibility"`
	Opponent   string          `json:"opponent"`

	// RematchBy - mark of the player with a pending rematch offer.
	RematchBy Mark `json:"-"`
}

type RoomSummary struct {
	ID      string `json:"id"`
	Size    int    `json:"size"`
	Players int    `json:"players"`
}

func NewSession(id string, size int, visibility, opponent string) (*Session, error) {
	board, err := NewBoard(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	if visibility != PrivateType {
		visibility = PublicType
	}

	if opponent != OpponentBot {
		opponent = OpponentHuman
	}

	return &Session{
		ID:         id,
		Board:      board,
		Turn:       MarkX,
		Players:    make(map[Mark]string, 2),
		Winner:     OutcomeNone,
		History:    make([]Move, 0),
		Visibility: visibility,
		Opponent:   opponent,
	}, nil
}

func (that *Session) State() State {
	switch {
	case that.Winner != OutcomeNone:
		return StateFinished
	case len(that.Players) == 2:
		return StateActive
	default:
		return StateWaiting
	}
}

func (that *Session) IsWaiting() bool {
	return that.State() == StateWaiting
}

func (that *Session) IsActive() bool {
	return that.State() == StateActive
}

func (that *Session) IsFinished() bool {
	return that.State() == StateFinished
}

func (that *Session) ConfirmOngoingState() error {
	switch that.State() {
	case StateWaiting:
		return apperror.ErrGameIsNotStarted
	case StateFinished:
		return apperror.ErrGameFinished
	default:
		return nil
	}
}

// Seat - seats the connection on the first free mark, X before O.
func (that *Session) Seat(connID string) (Mark, error) {
	if that.IsFinished() {
		return MarkEmpty, apperror.ErrGameFinished
	}

	if _, ok := that.MarkOf(connID); ok {
		return MarkEmpty, apperror.ErrAlreadySeated
	}

	for _, mark := range []Mark{MarkX, MarkO} {
		if _, taken := that.Players[mark]; !taken {
			that.Players[mark] = connID
			return mark, nil
		}
	}

	return MarkEmpty, apperror.ErrRoomFull
}

func (that *Session) MarkOf(connID string) (Mark, bool) {
	for mark, id := range that.Players {
		if id == connID {
			return mark, true
		}
	}

	return MarkEmpty, false
}

func (that *Session) ConnOf(mark Mark) (string, bool) {
	id, ok := that.Players[mark]
	return id, ok
}

// Connections - seated connection ids, X first.
func (that *Session) Connections() []string {
	conns := make([]string, 0, len(that.Players))
	for _, mark := range []Mark{MarkX, MarkO} {
		if id, ok := that.Players[mark]; ok {
			conns = append(conns, id)
		}
	}

	return conns
}

// Finish - records the outcome; the board is frozen afterwards.
func (that *Session) Finish(outcome Outcome, line []int) {
	that.Winner = outcome
	that.Line = line
	that.Turn = MarkEmpty
	that.RematchBy = MarkEmpty
}

// Forfeit - the leaver loses an active match. Returns the resulting winner.
func (that *Session) Forfeit(leaver Mark) Outcome {
	if that.IsActive() {
		that.Finish(OutcomeOf(leaver.Opponent()), nil)
	}

	return that.Winner
}

func (that *Session) OfferRematch(mark Mark) error {
	if !that.IsFinished() {
		return apperror.ErrGameNotFinished
	}

	if _, ok := that.Players[mark.Opponent()]; !ok {
		return apperror.ErrNotSeated
	}

	that.RematchBy = mark

	return nil
}

// AcceptRematch - accepts the other player's offer and resets the match.
func (that *Session) AcceptRematch(mark Mark) error {
	if err := that.confirmRematchOffer(mark); err != nil {
		return err
	}

	that.Reset()

	return nil
}

// DeclineRematch - drops the other player's offer and returns the offering mark.
func (that *Session) DeclineRematch(mark Mark) (Mark, error) {
	if err := that.confirmRematchOffer(mark); err != nil {
		return MarkEmpty, err
	}

	offeredBy := that.RematchBy
	that.RematchBy = MarkEmpty

	return offeredBy, nil
}

func (that *Session) confirmRematchOffer(mark Mark) error {
	if !that.IsFinished() {
		return apperror.ErrGameNotFinished
	}

	if that.RematchBy == MarkEmpty || that.RematchBy != mark.Opponent() {
		return apperror.ErrNoRematchOffer
	}

	return nil
}

// Reset - empties the board at the same size, X moves first.
func (that *Session) Reset() {
	that.Board.Clear()
	that.Turn = MarkX
	that.Winner = OutcomeNone
	that.Line = nil
	that.History = make([]Move, 0)
	that.RematchBy = MarkEmpty
}

func (that *Session) IsPublic() bool {
	return that.Visibility == PublicType
}

func (that *Session) IsWithBot() bool {
	return that.Opponent == OpponentBot
}

// IsListed - whether the room shows up in discovery.
func (that *Session) IsListed() bool {
	return that.IsPublic() && that.Winner == OutcomeNone && len(that.Players) < 2
}

func (that *Session) Summary() RoomSummary {
	return RoomSummary{
		ID:      that.ID,
		Size:    that.Board.Size,
		Players: len(that.Players),
	}
}

// Clone - deep copy for read-only callers outside the room lock.
func (that *Session) Clone() *Session {
	players := make(map[Mark]string, len(that.Players))
	for mark, id := range that.Players {
		players[mark] = id
	}

	history := make([]Move, len(that.History))
	copy(history, that.History)

	var line []int
	if that.Line != nil {
		line = make([]int, len(that.Line))
		copy(line, that.Line)
	}

	return &Session{
		ID:         that.ID,
		Board:      that.Board.Clone(),
		Turn:       that.Turn,
		Players:    players,
		Winner:     that.Winner,
		Line:       line,
		History:    history,
		Visibility: that.Visibility,
		Opponent:   that.Opponent,
		RematchBy:  that.RematchBy,
	}
}
