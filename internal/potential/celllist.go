package potential

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/dynamo"
)

// minChunk is the smallest number of atoms handed to one worker.
const minChunk = 64

// CellList bins atoms into cells at least one cutoff wide and only
// visits the 27 surrounding cells of each atom. Atoms are split over
// workers; each worker writes only the forces of its own atoms, so no
// locking is needed. Boxes too small for a 3x3x3 grid, or with open
// boundaries, fall back to the pairwise loop.
type CellList struct {
	lj       pair
	workers  int
	fallback *Pairwise
}

func NewCellList(p Params, workers int) *CellList {
	return &CellList{lj: newPair(p), workers: workers, fallback: NewPairwise(p)}
}

func (c *CellList) Name() string    { return NameCellList }
func (c *CellList) Cutoff() float64 { return c.lj.Cutoff }

type grid struct {
	n     [3]int
	heads []int
	next  []int
}

func (g *grid) index(ix, iy, iz int) int {
	return (ix*g.n[1]+iy)*g.n[2] + iz
}

func binOf(x, l float64, n int) int {
	x = math.Mod(x, l)
	if x < 0 {
		x += l
	}
	b := int(x / l * float64(n))
	if b >= n {
		b = n - 1
	}
	return b
}

func (c *CellList) build(a *atoms.Atoms) (*grid, bool) {
	lengths := [3]float64{a.Cell.X, a.Cell.Y, a.Cell.Z}
	g := &grid{}
	for i, l := range lengths {
		if !a.PBC[i] {
			return nil, false
		}
		g.n[i] = int(l / c.lj.Cutoff)
		if g.n[i] < 3 {
			return nil, false
		}
	}

	g.heads = make([]int, g.n[0]*g.n[1]*g.n[2])
	for i := range g.heads {
		g.heads[i] = -1
	}
	pos := a.Positions()
	g.next = make([]int, len(pos))

	// Insert in reverse so each cell lists atoms in ascending order.
	for i := len(pos) - 1; i >= 0; i-- {
		p := pos[i]
		cell := g.index(binOf(p.X, a.Cell.X, g.n[0]), binOf(p.Y, a.Cell.Y, g.n[1]), binOf(p.Z, a.Cell.Z, g.n[2]))
		g.next[i] = g.heads[cell]
		g.heads[cell] = i
	}
	return g, true
}

func (c *CellList) Calculate(a *atoms.Atoms) (float64, []r3.Vec, error) {
	if err := checkCutoff(a, c.lj.Cutoff); err != nil {
		return 0, nil, err
	}

	g, ok := c.build(a)
	if !ok {
		return c.fallback.Calculate(a)
	}

	pos := a.Positions()
	n := len(pos)
	forces := make([]r3.Vec, n)
	perAtom := make([]float64, n)

	dynamo.ParallelFor(n, minChunk, c.workers, func(start, end int) {
		for i := start; i < end; i++ {
			pi := pos[i]
			cx := binOf(pi.X, a.Cell.X, g.n[0])
			cy := binOf(pi.Y, a.Cell.Y, g.n[1])
			cz := binOf(pi.Z, a.Cell.Z, g.n[2])

			var fi r3.Vec
			ei := 0.0
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					for dz := -1; dz <= 1; dz++ {
						cell := g.index(
							(cx+dx+g.n[0])%g.n[0],
							(cy+dy+g.n[1])%g.n[1],
							(cz+dz+g.n[2])%g.n[2],
						)
						for j := g.heads[cell]; j >= 0; j = g.next[j] {
							if j == i {
								continue
							}
							d := minimumImage(r3.Sub(pos[j], pi), a.Cell, a.PBC)
							r2 := r3.Norm2(d)
							if r2 >= c.lj.rc2 {
								continue
							}
							e, f := c.lj.eval(r2)
							ei += 0.5 * e
							fi = r3.Sub(fi, r3.Scale(f, d))
						}
					}
				}
			}
			forces[i] = fi
			perAtom[i] = ei
		}
	})

	return floats.Sum(perAtom), forces, nil
}
