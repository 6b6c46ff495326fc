package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

func TestScoreTable_Score(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		offense int
		defense int
	}{
		{"five with both ends blocked", Pattern{Length: 5, Blocked: 2}, 100_000_000, 50_000_000},
		{"six", Pattern{Length: 6, Blocked: 0}, 100_000_000, 50_000_000},
		{"open four", Pattern{Length: 4, Blocked: 0}, 10_000_000, 5_000_000},
		{"four with one open end", Pattern{Length: 4, Blocked: 1}, 1_000_000, 500_000},
		{"dead four", Pattern{Length: 4, Blocked: 2}, 0, 0},
		{"open three", Pattern{Length: 3, Blocked: 0}, 100_000, 50_000},
		{"three with one open end", Pattern{Length: 3, Blocked: 1}, 1_000, 500},
		{"dead three", Pattern{Length: 3, Blocked: 2}, 0, 0},
		{"open two", Pattern{Length: 2, Blocked: 0}, 100, 50},
		{"half-open two", Pattern{Length: 2, Blocked: 1}, 0, 0},
		{"single stone", Pattern{Length: 1, Blocked: 0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offense, OffenseTable.Score(tt.pattern))
			assert.Equal(t, tt.defense, DefenseTable.Score(tt.pattern))
		})
	}
}

func TestScoreTable_Ordering(t *testing.T) {
	for _, table := range []ScoreTable{OffenseTable, DefenseTable} {
		assert.Greater(t, table.Five, table.OpenFour)
		assert.Greater(t, table.OpenFour, table.Four)
		assert.Greater(t, table.Four, table.OpenThree)
		assert.Greater(t, table.OpenThree, table.Three)
		assert.Greater(t, table.Three, table.OpenTwo)
		assert.Positive(t, table.OpenTwo)
	}

	// winning outranks stopping the opponent from winning
	assert.Greater(t, OffenseTable.Five, DefenseTable.Five)
}

func TestLinePattern(t *testing.T) {
	t.Run("Board edge blocks an end", func(t *testing.T) {
		// Given: X at columns 1 and 2 of row 0
		board := newBoard(t, 15)
		board.Cells[1] = entity.MarkX
		board.Cells[2] = entity.MarkX

		// When: evaluating X at column 0 horizontally
		pattern := LinePattern(board, 0, entity.MarkX, 0, 1)

		// Then: three long, one end blocked by the edge
		assert.Equal(t, Pattern{Length: 3, Blocked: 1}, pattern)
	})

	t.Run("Opposing stone blocks, empty does not", func(t *testing.T) {
		// Given: O _ X X [cand] _ on row 5
		board := newBoard(t, 15)
		board.Cells[board.Index(5, 3)] = entity.MarkO
		board.Cells[board.Index(5, 5)] = entity.MarkX
		board.Cells[board.Index(5, 6)] = entity.MarkX

		// When: evaluating X at column 7 horizontally
		pattern := LinePattern(board, board.Index(5, 7), entity.MarkX, 0, 1)

		// Then: three long, both ends open
		assert.Equal(t, Pattern{Length: 3, Blocked: 0}, pattern)
	})

	t.Run("Vertical run against opposing stone", func(t *testing.T) {
		// Given: X above and O below the candidate
		board := newBoard(t, 15)
		board.Cells[board.Index(6, 7)] = entity.MarkX
		board.Cells[board.Index(8, 7)] = entity.MarkO

		// When: evaluating X at (7,7) vertically
		pattern := LinePattern(board, board.Index(7, 7), entity.MarkX, 1, 0)

		// Then: two long, one end blocked
		assert.Equal(t, Pattern{Length: 2, Blocked: 1}, pattern)
		assert.Zero(t, ScoreLine(board, board.Index(7, 7), entity.MarkX, 1, 0, OffenseTable))
	})
}
