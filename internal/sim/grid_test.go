package sim

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func randomSet(rng *rand.Rand, n int, radius, w, h float64) *ParticleSet {
	ps := NewParticleSet(n, radius)
	for i := range ps.Particles {
		ps.Particles[i].Pos = r2.Vec{X: rng.Float64() * w, Y: rng.Float64() * h}
	}
	return ps
}

func TestNeighborsCoverEveryContact(t *testing.T) {
	const w, h, radius = 200.0, 150.0, 5.0
	rng := rand.New(rand.NewPCG(1, 2))
	ps := randomSet(rng, 400, radius, w, h)

	// Region sizes 0.5 and 0.75 give cells narrower than a diameter.
	for _, cellSize := range []float64{5, 7.5, 10, 25} {
		g := NewGrid(w, h)
		g.Rebuild(ps, cellSize)

		for i := range ps.Particles {
			seen := make(map[int]bool)
			for j := range g.Neighbors(i) {
				seen[j] = true
			}
			if !seen[i] {
				t.Fatalf("cell %v: particle %d missing from its own neighbourhood", cellSize, i)
			}
			for j := range ps.Particles {
				d2 := r2.Norm2(r2.Sub(ps.Particles[i].Pos, ps.Particles[j].Pos))
				if d2 < 4*radius*radius && !seen[j] {
					t.Fatalf("cell %v: contact %d-%d not reported", cellSize, i, j)
				}
			}
		}
	}
}

func TestGridBucketsEachParticleOnce(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	ps := randomSet(rng, 1000, 2, 300, 300)
	// A few out-of-bounds positions must still land in a cell.
	ps.Particles[0].Pos = r2.Vec{X: -50, Y: -50}
	ps.Particles[1].Pos = r2.Vec{X: 1e6, Y: 301}

	g := NewGrid(300, 300)
	g.Rebuild(ps, 10)

	count := make([]int, ps.Len())
	for _, cell := range g.cells {
		for _, i := range cell {
			count[i]++
		}
	}
	for i, c := range count {
		if c != 1 {
			t.Errorf("Expected particle %d in exactly one cell, found in %d", i, c)
		}
	}
}

func TestCellUsesFloorDivision(t *testing.T) {
	ps := NewParticleSet(4, 1)
	ps.Particles[0].Pos = r2.Vec{X: 10, Y: 0}     // exactly on a boundary
	ps.Particles[1].Pos = r2.Vec{X: 9.999, Y: 19} // just below it
	ps.Particles[2].Pos = r2.Vec{X: 100, Y: 100}  // on the far edge
	ps.Particles[3].Pos = r2.Vec{X: -0.5, Y: 5}

	g := NewGrid(100, 100)
	g.Rebuild(ps, 10)

	tests := []struct {
		i        int
		col, row int
	}{
		{0, 1, 0},
		{1, 0, 1},
		{2, 9, 9},
		{3, 0, 0},
	}
	for _, tt := range tests {
		col, row := g.Cell(tt.i)
		if col != tt.col || row != tt.row {
			t.Errorf("particle %d: expected cell (%d,%d), got (%d,%d)", tt.i, tt.col, tt.row, col, row)
		}
	}
	if cols, rows := g.Dims(); cols != 10 || rows != 10 {
		t.Errorf("Expected 10x10 grid, got %dx%d", cols, rows)
	}
}

func TestNeighborhoodCountMatchesNeighbors(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	ps := randomSet(rng, 500, 3, 120, 80)
	g := NewGrid(120, 80)
	g.Rebuild(ps, 4.5)

	for i := range ps.Particles {
		n := 0
		for range g.Neighbors(i) {
			n++
		}
		if got := g.NeighborhoodCount(i); got != n {
			t.Fatalf("particle %d: NeighborhoodCount %d, Neighbors yielded %d", i, got, n)
		}
	}
}

func TestAroundStopsEarly(t *testing.T) {
	ps := NewParticleSet(10, 1)
	for i := range ps.Particles {
		ps.Particles[i].Pos = r2.Vec{X: 5, Y: 5}
	}
	g := NewGrid(50, 50)
	g.Rebuild(ps, 10)

	n := 0
	for range g.Around(r2.Vec{X: 5, Y: 5}, 1) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("Expected iteration to stop at 3, got %d", n)
	}
}

func TestRebuildCapsCellCount(t *testing.T) {
	const w, h, radius = 1280.0, 720.0, 0.0005
	rng := rand.New(rand.NewPCG(7, 8))
	ps := randomSet(rng, 50, radius, w, h)
	// Touching pairs must still be reported after the cells are widened.
	for i := 0; i+1 < ps.Len(); i += 2 {
		ps.Particles[i+1].Pos = r2.Add(ps.Particles[i].Pos, r2.Vec{X: radius})
	}

	g := NewGrid(w, h)
	g.Rebuild(ps, 2*radius)

	cols, rows := g.Dims()
	if cols*rows > minGridCells {
		t.Fatalf("Expected at most %d cells, got %dx%d", minGridCells, cols, rows)
	}
	if g.CellSize() <= 2*radius {
		t.Errorf("Expected a widened cell, got %v", g.CellSize())
	}
	for i := 0; i+1 < ps.Len(); i += 2 {
		found := false
		for j := range g.Neighbors(i) {
			if j == i+1 {
				found = true
			}
		}
		if !found {
			t.Errorf("contact %d-%d not reported", i, i+1)
		}
	}
}
