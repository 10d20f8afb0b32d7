// Package broadphase finds candidate collision pairs with a uniform grid.
package broadphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// Pair is a candidate pair of body indices with A < B.
type Pair struct {
	A, B int
}

// Grid buckets bodies into cubic cells covering Bounds. A body is inserted
// into every cell its AABB overlaps; parts outside Bounds are clamped to the
// border cells. Smaller cells give fewer false candidates but more
// insertions per body.
type Grid struct {
	cellSize float64
	bounds   physics.AABB
	dims     [3]int

	cells   map[int][]int
	members [][]int
	order   []int
}

func New(cellSize float64, bounds physics.AABB) *Grid {
	g := &Grid{
		cellSize: cellSize,
		bounds:   bounds,
		cells:    make(map[int][]int),
	}
	for i := 0; i < 3; i++ {
		extent := bounds.Max[i] - bounds.Min[i]
		g.dims[i] = max(1, int(math.Ceil(extent/cellSize)))
	}
	return g
}

func (g *Grid) CellSize() float64    { return g.cellSize }
func (g *Grid) Bounds() physics.AABB { return g.bounds }
func (g *Grid) Dims() [3]int         { return g.dims }

// Clear empties every cell while keeping allocated storage.
func (g *Grid) Clear() {
	for k, v := range g.cells {
		g.cells[k] = v[:0]
	}
	for i := range g.members {
		g.members[i] = g.members[i][:0]
	}
	g.order = g.order[:0]
}

// Insert adds body index to every cell overlapped by box.
func (g *Grid) Insert(index int, box physics.AABB) {
	for len(g.members) <= index {
		g.members = append(g.members, nil)
	}
	lo := g.coord(box.Min)
	hi := g.coord(box.Max)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				cell := x + g.dims[0]*(y+g.dims[1]*z)
				g.cells[cell] = append(g.cells[cell], index)
				g.members[index] = append(g.members[index], cell)
			}
		}
	}
	g.order = append(g.order, index)
}

func (g *Grid) coord(p mgl64.Vec3) [3]int {
	var c [3]int
	for i := 0; i < 3; i++ {
		v := math.Floor((p[i] - g.bounds.Min[i]) / g.cellSize)
		if math.IsNaN(v) {
			v = 0
		}
		c[i] = int(mgl64.Clamp(v, 0, float64(g.dims[i]-1)))
	}
	return c
}

// Pairs returns every pair of bodies sharing at least one cell, each once,
// as (min, max). Output order follows insertion order, so identical
// insertions give identical pair lists.
func (g *Grid) Pairs() []Pair {
	var pairs []Pair
	seen := make(map[Pair]struct{})
	for _, i := range g.order {
		for _, cell := range g.members[i] {
			for _, j := range g.cells[cell] {
				if j == i {
					continue
				}
				p := Pair{A: min(i, j), B: max(i, j)}
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				pairs = append(pairs, p)
			}
		}
	}
	return pairs
}

// Occupied is the number of non-empty cells.
func (g *Grid) Occupied() int {
	n := 0
	for _, v := range g.cells {
		if len(v) > 0 {
			n++
		}
	}
	return n
}
