// Package atoms holds the particle container the simulation advances:
// positions, velocities and masses in an orthorhombic periodic box, plus
// the calculator that supplies energies and forces.
package atoms

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/units"
)

var (
	ErrUnknownElement = errors.New("atoms: unknown element")
	ErrInvalidSize    = errors.New("atoms: lattice size must be positive")
	ErrNoCalculator   = errors.New("atoms: no calculator attached")
	ErrLengthMismatch = errors.New("atoms: slice length does not match atom count")
)

// Calculator supplies the potential energy (eV) and per-atom forces
// (eV/Å) for the current positions of a.
type Calculator interface {
	Calculate(a *Atoms) (energy float64, forces []r3.Vec, err error)
}

type Atoms struct {
	Symbol string
	Cell   r3.Vec
	PBC    [3]bool

	positions  []r3.Vec
	velocities []r3.Vec
	masses     []float64

	calc  Calculator
	gen   uint64
	cache result
}

type result struct {
	gen    uint64
	valid  bool
	energy float64
	forces []r3.Vec
}

// New creates a single-species system at rest.
func New(symbol string, positions []r3.Vec, cell r3.Vec, pbc [3]bool) (*Atoms, error) {
	mass, err := units.Mass(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, symbol)
	}

	n := len(positions)
	a := &Atoms{
		Symbol:     symbol,
		Cell:       cell,
		PBC:        pbc,
		positions:  make([]r3.Vec, n),
		velocities: make([]r3.Vec, n),
		masses:     make([]float64, n),
	}
	copy(a.positions, positions)
	for i := range a.masses {
		a.masses[i] = mass
	}
	return a, nil
}

func (a *Atoms) Len() int { return len(a.positions) }

// Positions returns the backing slice. Use SetPositions to modify it so
// cached calculator results are invalidated.
func (a *Atoms) Positions() []r3.Vec { return a.positions }

func (a *Atoms) Velocities() []r3.Vec { return a.velocities }

func (a *Atoms) Masses() []float64 { return a.masses }

func (a *Atoms) SetPositions(p []r3.Vec) error {
	if len(p) != len(a.positions) {
		return ErrLengthMismatch
	}
	copy(a.positions, p)
	a.gen++
	return nil
}

func (a *Atoms) SetVelocities(v []r3.Vec) error {
	if len(v) != len(a.velocities) {
		return ErrLengthMismatch
	}
	copy(a.velocities, v)
	return nil
}

func (a *Atoms) SetCalculator(c Calculator) {
	a.calc = c
	a.cache = result{}
}

func (a *Atoms) Calculator() Calculator { return a.calc }

func (a *Atoms) calculate() error {
	if a.calc == nil {
		return ErrNoCalculator
	}
	if a.cache.valid && a.cache.gen == a.gen {
		return nil
	}
	e, f, err := a.calc.Calculate(a)
	if err != nil {
		return err
	}
	a.cache = result{gen: a.gen, valid: true, energy: e, forces: f}
	return nil
}

// PotentialEnergy returns the total potential energy in eV.
func (a *Atoms) PotentialEnergy() (float64, error) {
	if err := a.calculate(); err != nil {
		return 0, err
	}
	return a.cache.energy, nil
}

// Forces returns per-atom forces in eV/Å. The slice must not be modified.
func (a *Atoms) Forces() ([]r3.Vec, error) {
	if err := a.calculate(); err != nil {
		return nil, err
	}
	return a.cache.forces, nil
}

// KineticEnergy returns sum(m v^2 / 2) in eV.
func (a *Atoms) KineticEnergy() float64 {
	v2 := make([]float64, len(a.velocities))
	for i, v := range a.velocities {
		v2[i] = r3.Norm2(v)
	}
	return 0.5 * floats.Dot(a.masses, v2)
}

func (a *Atoms) Momentum() r3.Vec {
	var p r3.Vec
	for i, v := range a.velocities {
		p = r3.Add(p, r3.Scale(a.masses[i], v))
	}
	return p
}

func (a *Atoms) TotalMass() float64 { return floats.Sum(a.masses) }

func (a *Atoms) Volume() float64 { return a.Cell.X * a.Cell.Y * a.Cell.Z }

// WrapPositions maps positions back into the box along periodic axes.
func (a *Atoms) WrapPositions() {
	for i, p := range a.positions {
		if a.PBC[0] {
			p.X = wrap(p.X, a.Cell.X)
		}
		if a.PBC[1] {
			p.Y = wrap(p.Y, a.Cell.Y)
		}
		if a.PBC[2] {
			p.Z = wrap(p.Z, a.Cell.Z)
		}
		a.positions[i] = p
	}
	a.gen++
}

func wrap(x, l float64) float64 {
	if l <= 0 {
		return x
	}
	x = math.Mod(x, l)
	if x < 0 {
		x += l
	}
	return x
}

// Clone copies the particle data. The calculator is shared, cached
// results are not.
func (a *Atoms) Clone() *Atoms {
	c := &Atoms{
		Symbol:     a.Symbol,
		Cell:       a.Cell,
		PBC:        a.PBC,
		positions:  make([]r3.Vec, len(a.positions)),
		velocities: make([]r3.Vec, len(a.velocities)),
		masses:     make([]float64, len(a.masses)),
		calc:       a.calc,
	}
	copy(c.positions, a.positions)
	copy(c.velocities, a.velocities)
	copy(c.masses, a.masses)
	return c
}
