package sim

import (
	"iter"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Grid is a uniform bucket grid over the simulation bounds used as the
// collision broad phase.
//
// Every particle lives in exactly one cell. A query visits the particle's
// cell and enough rings of surrounding cells to cover one ball diameter, so
// it always returns a superset of the balls that can touch it. With a cell at
// least one diameter wide that is the usual 3x3 block.
type Grid struct {
	width, height float64
	cellSize      float64
	invCellSize   float64
	cols, rows    int
	rings         int
	cells         [][]int
	home          []int // cell index of each particle
}

// NewGrid creates an empty grid covering width x height.
func NewGrid(width, height float64) *Grid {
	return &Grid{width: width, height: height, cols: 1, rows: 1, rings: 1, cells: make([][]int, 1)}
}

// SetBounds changes the covered area. It takes effect on the next Rebuild.
func (g *Grid) SetBounds(width, height float64) {
	g.width, g.height = width, height
}

// minGridCells is the cell budget below which the requested cell size is
// always honoured.
const minGridCells = 1 << 16

// Rebuild clears the grid and buckets every particle of ps. The cell count
// is capped at max(4n, minGridCells); past that the cells are widened.
func (g *Grid) Rebuild(ps *ParticleSet, cellSize float64) {
	if !(cellSize > 0) {
		cellSize = math.Max(2*ps.Radius, 1)
	}
	limit := float64(max(4*ps.Len(), minGridCells))
	if cellCount(g.width, g.height, cellSize) > limit {
		cellSize = math.Max(cellSize, math.Sqrt(g.width*g.height/limit))
		for cellCount(g.width, g.height, cellSize) > limit {
			cellSize *= 1.1
		}
	}
	cols := max(1, int(math.Ceil(g.width/cellSize)))
	rows := max(1, int(math.Ceil(g.height/cellSize)))

	g.cellSize = cellSize
	g.invCellSize = 1 / cellSize
	g.rings = max(1, int(math.Ceil(2*ps.Radius/cellSize)))

	if cols != g.cols || rows != g.rows || len(g.cells) != cols*rows {
		g.cols, g.rows = cols, rows
		g.cells = make([][]int, cols*rows)
	} else {
		for i := range g.cells {
			g.cells[i] = g.cells[i][:0]
		}
	}

	if cap(g.home) < ps.Len() {
		g.home = make([]int, ps.Len())
	}
	g.home = g.home[:ps.Len()]

	for i := range ps.Particles {
		col, row := g.cellOf(ps.Particles[i].Pos)
		idx := row*g.cols + col
		g.cells[idx] = append(g.cells[idx], i)
		g.home[i] = idx
	}
}

func cellCount(width, height, cellSize float64) float64 {
	return math.Max(1, math.Ceil(width/cellSize)) * math.Max(1, math.Ceil(height/cellSize))
}

// cellOf maps a position to its cell by floor division, clamped to the grid.
func (g *Grid) cellOf(p r2.Vec) (col, row int) {
	return clampIndex(p.X*g.invCellSize, g.cols), clampIndex(p.Y*g.invCellSize, g.rows)
}

func clampIndex(v float64, n int) int {
	if !(v >= 0) { // also catches NaN
		return 0
	}
	i := int(math.Floor(v))
	if i >= n {
		return n - 1
	}
	return i
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }

// CellSize returns the cell edge of the last Rebuild.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Cell returns the column and row particle i was bucketed into.
func (g *Grid) Cell(i int) (col, row int) {
	idx := g.home[i]
	return idx % g.cols, idx / g.cols
}

// Neighbors yields every particle in i's cell and the surrounding rings,
// including i itself. Order is unspecified.
func (g *Grid) Neighbors(i int) iter.Seq[int] {
	col, row := g.Cell(i)
	return g.block(col, row, g.rings)
}

// Around yields the particles in all cells overlapping the square that
// bounds a disc of the given radius around p.
func (g *Grid) Around(p r2.Vec, radius float64) iter.Seq[int] {
	col, row := g.cellOf(p)
	rings := max(0, int(math.Ceil(radius*g.invCellSize)))
	return g.block(col, row, rings)
}

func (g *Grid) block(col, row, rings int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for r := max(0, row-rings); r <= min(g.rows-1, row+rings); r++ {
			base := r * g.cols
			for c := max(0, col-rings); c <= min(g.cols-1, col+rings); c++ {
				for _, j := range g.cells[base+c] {
					if !yield(j) {
						return
					}
				}
			}
		}
	}
}

// NeighborhoodCount is the number of particles Neighbors(i) would yield.
func (g *Grid) NeighborhoodCount(i int) int {
	col, row := g.Cell(i)
	n := 0
	for r := max(0, row-g.rings); r <= min(g.rows-1, row+g.rings); r++ {
		base := r * g.cols
		for c := max(0, col-g.rings); c <= min(g.cols-1, col+g.rings); c++ {
			n += len(g.cells[base+c])
		}
	}
	return n
}
