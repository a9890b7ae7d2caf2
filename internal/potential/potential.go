// Package potential provides the interatomic force fields used to drive
// the dynamics. A force field is picked once, by name, when the run is
// configured; every energy and force evaluation then goes through the
// same [Potential] value.
package potential

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/atoms"
)

var (
	ErrUnknown        = errors.New("potential: unknown potential")
	ErrCutoffTooLarge = errors.New("potential: cutoff exceeds half the periodic box")
)

const (
	NameCellList = "lj-cell"
	NamePairwise = "lj-pair"
)

type Potential interface {
	atoms.Calculator
	Name() string
	Cutoff() float64
}

// Params are Lennard-Jones parameters: well depth in eV, length scale and
// cutoff radius in Å.
type Params struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
}

// Copper is a Lennard-Jones parametrisation of fcc Cu.
var Copper = Params{Epsilon: 0.4093, Sigma: 2.338, Cutoff: 5.0}

// Halicioglu and Pound parameters for other fcc metals. Cutoffs keep the
// same reduced radius as Copper.
var metals = map[string]Params{
	"Cu": Copper,
	"Ag": {Epsilon: 0.3447, Sigma: 2.644, Cutoff: 2.14 * 2.644},
	"Au": {Epsilon: 0.4414, Sigma: 2.637, Cutoff: 2.14 * 2.637},
	"Ni": {Epsilon: 0.5197, Sigma: 2.282, Cutoff: 2.14 * 2.282},
	"Al": {Epsilon: 0.3922, Sigma: 2.620, Cutoff: 2.14 * 2.620},
}

// ParamsFor returns the Lennard-Jones parameters for symbol.
func ParamsFor(symbol string) (Params, error) {
	p, ok := metals[symbol]
	if !ok {
		return Params{}, fmt.Errorf("%w: no Lennard-Jones parameters for %q", ErrUnknown, symbol)
	}
	return p, nil
}

var registry = map[string]func(p Params, workers int) Potential{
	NameCellList: func(p Params, workers int) Potential { return NewCellList(p, workers) },
	NamePairwise: func(p Params, _ int) Potential { return NewPairwise(p) },
}

// Select returns the potential registered under name.
func Select(name string, p Params, workers int) (Potential, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknown, name, Names())
	}
	return fn(p, workers), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pair is the truncated and shifted Lennard-Jones interaction.
type pair struct {
	Params
	sigma6 float64
	rc2    float64
	shift  float64
}

func newPair(p Params) pair {
	s6 := math.Pow(p.Sigma, 6)
	lj := pair{Params: p, sigma6: s6, rc2: p.Cutoff * p.Cutoff}
	lj.shift = lj.raw(lj.rc2)
	return lj
}

func (lj pair) raw(r2 float64) float64 {
	sr6 := lj.sigma6 / (r2 * r2 * r2)
	return 4 * lj.Epsilon * (sr6*sr6 - sr6)
}

// eval returns the pair energy and f = -(dV/dr)/r for squared distance r2.
func (lj pair) eval(r2 float64) (float64, float64) {
	sr6 := lj.sigma6 / (r2 * r2 * r2)
	e := 4*lj.Epsilon*(sr6*sr6-sr6) - lj.shift
	f := 24 * lj.Epsilon * (2*sr6*sr6 - sr6) / r2
	return e, f
}

func minimumImage(d, cell r3.Vec, pbc [3]bool) r3.Vec {
	if pbc[0] && cell.X > 0 {
		d.X -= cell.X * math.Round(d.X/cell.X)
	}
	if pbc[1] && cell.Y > 0 {
		d.Y -= cell.Y * math.Round(d.Y/cell.Y)
	}
	if pbc[2] && cell.Z > 0 {
		d.Z -= cell.Z * math.Round(d.Z/cell.Z)
	}
	return d
}

func checkCutoff(a *atoms.Atoms, cutoff float64) error {
	lengths := [3]float64{a.Cell.X, a.Cell.Y, a.Cell.Z}
	for i, l := range lengths {
		if a.PBC[i] && cutoff > l/2 {
			return fmt.Errorf("%w: cutoff %.3f Å, box %.3f Å along axis %d", ErrCutoffTooLarge, cutoff, l, i)
		}
	}
	return nil
}
