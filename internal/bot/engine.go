package bot

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
)

// searchRadius - candidates must have a stone within this Chebyshev distance.
const searchRadius = 2

// ChooseMove - picks a cell for mark by single-ply evaluation. Returns -1 when the board is full or malformed.
func ChooseMove(board *entity.Board, mark entity.Mark) int {
	index, err := ChooseMoveChecked(board, mark)
	if err != nil {
		return -1
	}

	return index
}

// ChooseMoveChecked - same as ChooseMove, reporting why no move exists.
func ChooseMoveChecked(board *entity.Board, mark entity.Mark) (int, error) {
	if !board.Valid() {
		return -1, fmt.Errorf("%w: %d cells for size %d", apperror.ErrInvalidSize, len(board.Cells), board.Size)
	}

	empty := board.EmptyCells()
	if len(empty) == 0 {
		return -1, apperror.ErrBoardFull
	}

	if len(empty) == len(board.Cells) {
		return len(board.Cells) / 2, nil
	}

	candidates := Candidates(board)
	if len(candidates) == 0 {
		return empty[rand.Intn(len(empty))], nil //nolint: gosec // it's ok
	}

	bestScore := -1
	best := make([]int, 0, len(candidates))

	for _, index := range candidates {
		score := EvaluateCell(board, index, mark)

		switch {
		case score > bestScore:
			bestScore = score
			best = append(best[:0], index)
		case score == bestScore:
			best = append(best, index)
		}
	}

	return best[rand.Intn(len(best))], nil //nolint: gosec // it's ok
}

// Candidates - empty cells with at least one stone within searchRadius.
func Candidates(board *entity.Board) []int {
	candidates := make([]int, 0)

	for index, cell := range board.Cells {
		if cell != entity.MarkEmpty {
			continue
		}

		if hasNeighbor(board, index) {
			candidates = append(candidates, index)
		}
	}

	return candidates
}

func hasNeighbor(board *entity.Board, index int) bool {
	row, col := board.Position(index)

	for dRow := -searchRadius; dRow <= searchRadius; dRow++ {
		for dCol := -searchRadius; dCol <= searchRadius; dCol++ {
			if dRow == 0 && dCol == 0 {
				continue
			}

			if cell, ok := board.At(row+dRow, col+dCol); ok && cell != entity.MarkEmpty {
				return true
			}
		}
	}

	return false
}

// EvaluateCell - offense for mark plus defense against the opponent, summed over all four axes.
func EvaluateCell(board *entity.Board, index int, mark entity.Mark) int {
	opponent := mark.Opponent()
	score := 0

	for _, dir := range gomoku.Directions {
		score += ScoreLine(board, index, mark, dir.DRow, dir.DCol, OffenseTable)
		score += ScoreLine(board, index, opponent, dir.DRow, dir.DCol, DefenseTable)
	}

	return score
}
