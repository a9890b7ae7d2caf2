package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/dynamo"
)

// Crystal exposes a particle system as a [dynamo.System]. The state
// layout is [x1 y1 z1 ... xN yN zN | vx1 vy1 vz1 ... vxN vyN vzN] and
// Derive returns [v | F/m]. Forces are evaluated on a private copy of
// the atoms so integrator trial states never touch the live system.
type Crystal struct {
	atoms *atoms.Atoms
	work  *atoms.Atoms
	pos   []r3.Vec
	err   error
}

func NewCrystal(a *atoms.Atoms) (*Crystal, error) {
	if a.Calculator() == nil {
		return nil, atoms.ErrNoCalculator
	}
	return &Crystal{
		atoms: a,
		work:  a.Clone(),
		pos:   make([]r3.Vec, a.Len()),
	}, nil
}

func (c *Crystal) Atoms() *atoms.Atoms { return c.atoms }

func (c *Crystal) StateDim() int { return c.atoms.Len() * 6 }

// State packs the live positions and velocities.
func (c *Crystal) State() dynamo.State {
	n := c.atoms.Len()
	x := make(dynamo.State, 6*n)
	pack(x[:3*n], c.atoms.Positions())
	pack(x[3*n:], c.atoms.Velocities())
	return x
}

// Apply writes x back into the live atoms.
func (c *Crystal) Apply(x dynamo.State) error {
	if len(x) != c.StateDim() {
		return fmt.Errorf("%w: state has %d components, system needs %d", dynamo.ErrDimensionMismatch, len(x), c.StateDim())
	}
	n := c.atoms.Len()
	v := make([]r3.Vec, n)
	unpack(c.pos, x.Positions())
	unpack(v, x.Velocities())
	if err := c.atoms.SetPositions(c.pos); err != nil {
		return err
	}
	return c.atoms.SetVelocities(v)
}

// Err returns the last force evaluation error. Derive cannot return
// errors, so it fills the accelerations with NaN and records it here.
func (c *Crystal) Err() error { return c.err }

func (c *Crystal) Derive(x dynamo.State, t float64) dynamo.State {
	n := c.atoms.Len()
	dx := make(dynamo.State, len(x))
	copy(dx[:3*n], x.Velocities())

	forces, err := c.forces(x)
	if err != nil {
		c.err = err
		for i := 3 * n; i < len(dx); i++ {
			dx[i] = math.NaN()
		}
		return dx
	}

	masses := c.atoms.Masses()
	acc := dx[3*n:]
	for i, f := range forces {
		m := masses[i]
		acc[3*i] = f.X / m
		acc[3*i+1] = f.Y / m
		acc[3*i+2] = f.Z / m
	}
	return dx
}

func (c *Crystal) forces(x dynamo.State) ([]r3.Vec, error) {
	unpack(c.pos, x.Positions())
	if err := c.work.SetPositions(c.pos); err != nil {
		return nil, err
	}
	return c.work.Forces()
}

// Energy returns the total energy of state x in eV, or NaN if the
// potential cannot be evaluated.
func (c *Crystal) Energy(x dynamo.State) float64 {
	unpack(c.pos, x.Positions())
	if err := c.work.SetPositions(c.pos); err != nil {
		return math.NaN()
	}
	epot, err := c.work.PotentialEnergy()
	if err != nil {
		c.err = err
		return math.NaN()
	}

	ekin := 0.0
	vel := x.Velocities()
	for i, m := range c.atoms.Masses() {
		vx, vy, vz := vel[3*i], vel[3*i+1], vel[3*i+2]
		ekin += 0.5 * m * (vx*vx + vy*vy + vz*vz)
	}
	return epot + ekin
}

func pack(dst []float64, src []r3.Vec) {
	for i, v := range src {
		dst[3*i] = v.X
		dst[3*i+1] = v.Y
		dst[3*i+2] = v.Z
	}
}

func unpack(dst []r3.Vec, src []float64) {
	for i := range dst {
		dst[i] = r3.Vec{X: src[3*i], Y: src[3*i+1], Z: src[3*i+2]}
	}
}
