package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// TurnResult - what changed after an accepted move.
type TurnResult struct {
	Move     entity.Move
	Winner   entity.Outcome
	Line     []int
	NextTurn entity.Mark
}

// IsFinal - the move ended the match.
func (that *TurnResult) IsFinal() bool {
	return that.Winner != entity.OutcomeNone
}

// MakeTurn - places mark at index and advances the session. The session is left untouched on error.
func MakeTurn(session *entity.Session, mark entity.Mark, index int) (*TurnResult, error) {
	if err := session.ConfirmOngoingState(); err != nil {
		return nil, err
	}

	if err := validateMove(session, mark, index); err != nil {
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	session.Board.Cells[index] = mark
	move := entity.Move{Mark: mark, Index: index}
	session.History = append(session.History, move)

	updateGameStatus(session, move)

	return &TurnResult{
		Move:     move,
		Winner:   session.Winner,
		Line:     session.Line,
		NextTurn: session.Turn,
	}, nil
}

// validateMove - checks if the move is valid.
func validateMove(session *entity.Session, mark entity.Mark, index int) error {
	if session.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if !session.Board.InRange(index) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, index)
	}

	if session.Board.Cells[index] != entity.MarkEmpty {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(session *entity.Session, move entity.Move) {
	if result, ok := DetectWin(session.Board, move.Index); ok {
		session.Finish(result.Winner, result.Line)
		return
	}

	if session.Board.IsFull() {
		session.Finish(entity.OutcomeDraw, nil)
		return
	}

	session.Turn = move.Mark.Opponent()
}
