package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBoardLayout(t *testing.T) {
	b := NewBoard(3, 4, zap.NewNop())

	cols, rows := b.Size()
	assert.Equal(t, 3, cols)
	assert.Equal(t, 4, rows)

	cells := b.Cells()
	require.Len(t, cells, 12)
	wantIDs := []string{
		"b0", "b1", "b2",
		"10", "11", "12",
		"20", "21", "22",
		"w0", "w1", "w2",
	}
	for i, id := range wantIDs {
		assert.Equal(t, id, cells[i].ID)
		assert.True(t, cells[i].Empty())
	}

	for _, id := range wantIDs {
		cell, ok := b.CellByID(id)
		require.True(t, ok, id)
		assert.Equal(t, id, cell.ID)
	}
	_, ok := b.CellByID("99")
	assert.False(t, ok)
}

func TestBoardDistance(t *testing.T) {
	b := NewBoard(5, 6, zap.NewNop())

	tests := []struct {
		from, to string
		want     int
	}{
		{"21", "21", 0},
		{"21", "22", 1},
		{"21", "31", 1},
		{"21", "32", 2},
		{"b0", "10", 1},
		{"40", "w0", 1},
		{"b0", "w0", 5},
		{"b0", "w4", 9},
		{"21", "xx", -1},
		{"xx", "21", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Distance(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestBoardAttachDetach(t *testing.T) {
	b := NewBoard(5, 6, zap.NewNop())

	b.Attach("21", "soldier.0000")
	cell, _ := b.CellByID("21")
	assert.Equal(t, "soldier.0000", cell.UnitID)

	// Attaching over an occupant leaves the occupant in place.
	b.Attach("21", "soldier.0001")
	assert.Equal(t, "soldier.0000", cell.UnitID)

	assert.Equal(t, "soldier.0000", b.Detach("21"))
	assert.True(t, cell.Empty())
	assert.Equal(t, "", b.Detach("21"))
	assert.Equal(t, "", b.Detach("xx"))
}

func TestHomeRowCells(t *testing.T) {
	b := NewBoard(4, 5, zap.NewNop())

	black := b.HomeRowCells(BlackHomePrefix)
	require.Len(t, black, 4)
	for i, cell := range black {
		assert.Equal(t, []string{"b0", "b1", "b2", "b3"}[i], cell.ID)
	}

	white := b.HomeRowCells(WhiteHomePrefix)
	require.Len(t, white, 4)
	assert.Equal(t, "w0", white[0].ID)
}
