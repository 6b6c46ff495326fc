package gomoku

import (
	"sort"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Direction - a (row, column) step along one axis of the board.
type Direction struct {
	DRow int
	DCol int
}

// Directions - horizontal, vertical, diagonal-down and anti-diagonal, in the order they are checked.
var Directions = [4]Direction{
	{DRow: 0, DCol: 1},
	{DRow: 1, DCol: 0},
	{DRow: 1, DCol: 1},
	{DRow: 1, DCol: -1},
}

type WinResult struct {
	Winner entity.Outcome
	Line   []int
}

// DetectWin - checks whether the mark at lastIndex completes five in a row.
// Directions are checked in fixed order and the first one reaching WinLength is reported;
// a placement completing two lines at once only reports the first of them.
// Each walk stops after WinLength-1 steps, so the reported line has between 5 and 9 cells.
func DetectWin(board *entity.Board, lastIndex int) (WinResult, bool) {
	if !board.Valid() || !board.InRange(lastIndex) {
		return WinResult{}, false
	}

	mark := board.Cells[lastIndex]
	if mark == entity.MarkEmpty {
		return WinResult{}, false
	}

	row, col := board.Position(lastIndex)

	for _, dir := range Directions {
		line := []int{lastIndex}
		line = append(line, walk(board, mark, row, col, dir.DRow, dir.DCol)...)
		line = append(line, walk(board, mark, row, col, -dir.DRow, -dir.DCol)...)

		if len(line) >= entity.WinLength {
			sort.Ints(line)

			return WinResult{Winner: entity.OutcomeOf(mark), Line: line}, true
		}
	}

	return WinResult{}, false
}

func walk(board *entity.Board, mark entity.Mark, row, col, dRow, dCol int) []int {
	cells := make([]int, 0, entity.WinLength-1)

	for step := 1; step < entity.WinLength; step++ {
		r, c := row+dRow*step, col+dCol*step

		cell, ok := board.At(r, c)
		if !ok || cell != mark {
			break
		}

		cells = append(cells, board.Index(r, c))
	}

	return cells
}
