// Package spatial provides the indexing structures the engine rebuilds or
// updates every tick: a uniform grid for radius queries, a ranked skip
// list for the damage meter, and a bounded MPSC queue for cross-goroutine
// hand-off.
//
// Structures reuse their backing slices between ticks to keep GC pressure
// flat.
package spatial

import "math"

// Grid is a uniform grid over the X/Z ground plane. Entries are indices
// into the caller's slice, not pointers.
//
// The cell size should match the largest common query radius. Positions
// outside the bounds clamp to the edge cells, so queries stay correct and
// only lose pruning.
type Grid struct {
	minX, minZ  float64
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32 // row-major
	scratch     []uint32
	count       int
}

// NewGrid covers [minX, minX+width) x [minZ, minZ+depth).
func NewGrid(minX, minZ, width, depth, cellSize float64, maxEntities int) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(depth / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := maxEntities / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &Grid{
		minX:        minX,
		minZ:        minZ,
		cellSize:    cellSize,
		invCellSize: 1 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties every cell, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

func (g *Grid) col(x float64) int {
	c := int(math.Floor((x - g.minX) * g.invCellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *Grid) row(z float64) int {
	r := int(math.Floor((z - g.minZ) * g.invCellSize))
	if r < 0 {
		return 0
	}
	if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// Insert adds index at (x, z).
func (g *Grid) Insert(index uint32, x, z float64) {
	idx := g.row(z)*g.cols + g.col(x)
	g.cells[idx] = append(g.cells[idx], index)
	g.count++
}

// QueryRadius returns candidate indices within radius of (x, z). The
// result may include entries outside the radius; callers do the exact
// distance check. The slice is reused by the next query.
func (g *Grid) QueryRadius(x, z, radius float64) []uint32 {
	g.scratch = g.scratch[:0]
	minCol, maxCol := g.col(x-radius), g.col(x+radius)
	minRow, maxRow := g.row(z-radius), g.row(z+radius)
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			g.scratch = append(g.scratch, g.cells[r*g.cols+c]...)
		}
	}
	return g.scratch
}

// QueryCell returns the indices in the cell containing (x, z).
func (g *Grid) QueryCell(x, z float64) []uint32 {
	return g.cells[g.row(z)*g.cols+g.col(x)]
}

// Len returns the number of inserted entries.
func (g *Grid) Len() int {
	return g.count
}

// GridStats describes occupancy.
type GridStats struct {
	TotalCells     int     `json:"totalCells"`
	NonEmptyCells  int     `json:"nonEmptyCells"`
	TotalEntities  int     `json:"totalEntities"`
	MaxInCell      int     `json:"maxInCell"`
	AvgPerNonEmpty float64 `json:"avgPerNonEmpty"`
}

// Stats returns occupancy for debugging.
func (g *Grid) Stats() GridStats {
	var st GridStats
	st.TotalCells = len(g.cells)
	for _, cell := range g.cells {
		n := len(cell)
		st.TotalEntities += n
		if n > st.MaxInCell {
			st.MaxInCell = n
		}
		if n > 0 {
			st.NonEmptyCells++
		}
	}
	if st.NonEmptyCells > 0 {
		st.AvgPerNonEmpty = float64(st.TotalEntities) / float64(st.NonEmptyCells)
	}
	return st
}

// Dimensions returns the grid size.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
