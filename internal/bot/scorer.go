package bot

import (
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Pattern - a run of same-colored stones through a candidate cell on one axis.
type Pattern struct {
	Length  int
	Blocked int
}

// ScoreTable - score per run shape. Runs of WinLength or more use Five regardless of blocked ends.
type ScoreTable struct {
	Five      int
	OpenFour  int
	Four      int
	OpenThree int
	Three     int
	OpenTwo   int
}

var (
	// OffenseTable - value of extending the acting player's own runs.
	OffenseTable = ScoreTable{
		Five:      100_000_000,
		OpenFour:  10_000_000,
		Four:      1_000_000,
		OpenThree: 100_000,
		Three:     1_000,
		OpenTwo:   100,
	}

	// DefenseTable - value of occupying a cell the opponent needs.
	DefenseTable = ScoreTable{
		Five:      50_000_000,
		OpenFour:  5_000_000,
		Four:      500_000,
		OpenThree: 50_000,
		Three:     500,
		OpenTwo:   50,
	}
)

// Score - looks up the value of a pattern. Shapes blocked on both ends score zero below five.
func (that ScoreTable) Score(pattern Pattern) int {
	if pattern.Length >= entity.WinLength {
		return that.Five
	}

	switch {
	case pattern.Length == 4 && pattern.Blocked == 0:
		return that.OpenFour
	case pattern.Length == 4 && pattern.Blocked == 1:
		return that.Four
	case pattern.Length == 3 && pattern.Blocked == 0:
		return that.OpenThree
	case pattern.Length == 3 && pattern.Blocked == 1:
		return that.Three
	case pattern.Length == 2 && pattern.Blocked == 0:
		return that.OpenTwo
	default:
		return 0
	}
}

// LinePattern - run length and blocked ends if mark were placed at index, along (dRow, dCol).
// The board edge and the other player's mark block an end; an empty cell does not.
func LinePattern(board *entity.Board, index int, mark entity.Mark, dRow, dCol int) Pattern {
	row, col := board.Position(index)
	pattern := Pattern{Length: 1}

	for _, sign := range [2]int{1, -1} {
		for step := 1; ; step++ {
			cell, ok := board.At(row+sign*dRow*step, col+sign*dCol*step)
			if !ok {
				pattern.Blocked++
				break
			}

			if cell == mark {
				pattern.Length++
				continue
			}

			if cell != entity.MarkEmpty {
				pattern.Blocked++
			}

			break
		}
	}

	return pattern
}

// ScoreLine - table score of one axis through index for mark.
func ScoreLine(board *entity.Board, index int, mark entity.Mark, dRow, dCol int, table ScoreTable) int {
	return table.Score(LinePattern(board, index, mark, dRow, dCol))
}
