package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

// WinLength - number of contiguous marks needed to win.
const WinLength = 5

type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Opponent - returns the other player's mark.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

// Board - square grid stored row-major, cell i is at row i/Size, column i%Size.
type Board struct {
	Size  int    `json:"size"`
	Cells []Mark `json:"cells"`
}

func NewBoard(size int) (*Board, error) {
	if size < WinLength {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	return &Board{
		Size:  size,
		Cells: make([]Mark, size*size),
	}, nil
}

func (that *Board) InRange(index int) bool {
	return index >= 0 && index < len(that.Cells)
}

// At - returns the mark at (row, col) and false when the position is off the board.
func (that *Board) At(row, col int) (Mark, bool) {
	if row < 0 || row >= that.Size || col < 0 || col >= that.Size {
		return MarkEmpty, false
	}

	return that.Cells[row*that.Size+col], true
}

func (that *Board) Index(row, col int) int {
	return row*that.Size + col
}

func (that *Board) Position(index int) (int, int) {
	return index / that.Size, index % that.Size
}

func (that *Board) IsEmpty() bool {
	for _, cell := range that.Cells {
		if cell != MarkEmpty {
			return false
		}
	}

	return true
}

func (that *Board) IsFull() bool {
	for _, cell := range that.Cells {
		if cell == MarkEmpty {
			return false
		}
	}

	return true
}

func (that *Board) EmptyCells() []int {
	cells := make([]int, 0, len(that.Cells))
	for i, cell := range that.Cells {
		if cell == MarkEmpty {
			cells = append(cells, i)
		}
	}

	return cells
}

// Valid - reports whether the cell slice matches the declared size.
func (that *Board) Valid() bool {
	return that.Size >= WinLength && len(that.Cells) == that.Size*that.Size
}

func (that *Board) Clear() {
	for i := range that.Cells {
		that.Cells[i] = MarkEmpty
	}
}

func (that *Board) Clone() *Board {
	cells := make([]Mark, len(that.Cells))
	copy(cells, that.Cells)

	return &Board{
		Size:  that.Size,
		Cells: cells,
	}
}
