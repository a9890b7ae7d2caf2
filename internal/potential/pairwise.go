package potential

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/atoms"
)

// Pairwise evaluates every pair under the minimum-image convention. It
// is the reference implementation for small systems.
type Pairwise struct {
	lj pair
}

func NewPairwise(p Params) *Pairwise {
	return &Pairwise{lj: newPair(p)}
}

func (p *Pairwise) Name() string    { return NamePairwise }
func (p *Pairwise) Cutoff() float64 { return p.lj.Cutoff }

func (p *Pairwise) Calculate(a *atoms.Atoms) (float64, []r3.Vec, error) {
	if err := checkCutoff(a, p.lj.Cutoff); err != nil {
		return 0, nil, err
	}

	pos := a.Positions()
	n := len(pos)
	forces := make([]r3.Vec, n)
	energy := 0.0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := minimumImage(r3.Sub(pos[j], pos[i]), a.Cell, a.PBC)
			r2 := r3.Norm2(d)
			if r2 >= p.lj.rc2 {
				continue
			}
			e, f := p.lj.eval(r2)
			energy += e
			fd := r3.Scale(f, d)
			forces[i] = r3.Sub(forces[i], fd)
			forces[j] = r3.Add(forces[j], fd)
		}
	}

	return energy, forces, nil
}
