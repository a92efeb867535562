package game

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Home-row cell id prefixes. Seat 0 ("black") owns the top home row,
// seat 1 ("white") the bottom one.
const (
	BlackHomePrefix = "b"
	WhiteHomePrefix = "w"
)

// Cell is one addressable board slot. It holds at most one unit, referenced
// by id; an empty cell has an empty UnitID.
type Cell struct {
	ID     string `json:"id"`
	UnitID string `json:"unit_id,omitempty"`
}

// Empty reports whether no unit occupies the cell.
func (c *Cell) Empty() bool {
	return c.UnitID == ""
}

// Board is the fixed-topology grid of cells. Row 0 is black's home row,
// the last row is white's home row, and everything between is the playable
// interior. Cell ids and flat indices form a bijection built once at
// construction.
type Board struct {
	cols   int
	rows   int
	cells  []*Cell
	index  map[string]int
	logger *zap.Logger
}

// NewBoard builds the fixed cell layout for a cols × rows board.
// Home-row cells are named "b{col}" / "w{col}", interior cells "{row}{col}".
func NewBoard(cols, rows int, logger *zap.Logger) *Board {
	b := &Board{
		cols:   cols,
		rows:   rows,
		cells:  make([]*Cell, 0, cols*rows),
		index:  make(map[string]int, cols*rows),
		logger: logger,
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			var id string
			switch row {
			case 0:
				id = fmt.Sprintf("%s%d", BlackHomePrefix, col)
			case rows - 1:
				id = fmt.Sprintf("%s%d", WhiteHomePrefix, col)
			default:
				id = fmt.Sprintf("%d%d", row, col)
			}
			b.index[id] = len(b.cells)
			b.cells = append(b.cells, &Cell{ID: id})
		}
	}
	return b
}

// Size returns the board dimensions as (cols, rows).
func (b *Board) Size() (int, int) {
	return b.cols, b.rows
}

// Cells returns the cells in layout order.
func (b *Board) Cells() []*Cell {
	return b.cells
}

// CellByID resolves a cell id.
func (b *Board) CellByID(id string) (*Cell, bool) {
	i, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return b.cells[i], true
}

// Distance returns the Manhattan distance between two cells, derived from
// their flat indices and the column count. Unknown ids yield -1.
func (b *Board) Distance(fromID, toID string) int {
	fi, ok := b.index[fromID]
	if !ok {
		return -1
	}
	ti, ok := b.index[toID]
	if !ok {
		return -1
	}
	dr := fi/b.cols - ti/b.cols
	dc := fi%b.cols - ti%b.cols
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// Attach places a unit on a cell. Callers validate emptiness beforehand;
// an occupied target is logged and left untouched.
func (b *Board) Attach(cellID, unitID string) {
	cell, ok := b.CellByID(cellID)
	if !ok {
		b.logger.Warn("attach to unknown cell", zap.String("cell_id", cellID), zap.String("unit_id", unitID))
		return
	}
	if !cell.Empty() {
		b.logger.Warn("attach to occupied cell",
			zap.String("cell_id", cellID),
			zap.String("unit_id", unitID),
			zap.String("occupant_id", cell.UnitID),
		)
		return
	}
	cell.UnitID = unitID
}

// Detach removes and returns the unit id on a cell. Detaching an empty cell
// is logged and returns "".
func (b *Board) Detach(cellID string) string {
	cell, ok := b.CellByID(cellID)
	if !ok {
		b.logger.Warn("detach from unknown cell", zap.String("cell_id", cellID))
		return ""
	}
	if cell.Empty() {
		b.logger.Warn("detach from empty cell", zap.String("cell_id", cellID))
		return ""
	}
	unitID := cell.UnitID
	cell.UnitID = ""
	return unitID
}

// HomeRowCells returns the cells of the home row with the given prefix.
func (b *Board) HomeRowCells(prefix string) []*Cell {
	cells := make([]*Cell, 0, b.cols)
	for _, cell := range b.cells {
		if strings.HasPrefix(cell.ID, prefix) {
			cells = append(cells, cell)
		}
	}
	return cells
}
