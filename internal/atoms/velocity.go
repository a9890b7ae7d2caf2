package atoms

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
)

// MaxwellBoltzmann draws velocities from the Maxwell-Boltzmann
// distribution at temperature kT (eV). Each Cartesian component is
// normal with variance kT/m.
func MaxwellBoltzmann(a *Atoms, kT float64, rng *rand.Rand) error {
	if kT < 0 || math.IsNaN(kT) {
		return fmt.Errorf("atoms: temperature must be non-negative, got kT=%g", kT)
	}
	for i, m := range a.masses {
		sigma := math.Sqrt(kT / m)
		a.velocities[i] = r3.Vec{
			X: sigma * rng.NormFloat64(),
			Y: sigma * rng.NormFloat64(),
			Z: sigma * rng.NormFloat64(),
		}
	}
	return nil
}

// ZeroMomentum removes the centre-of-mass velocity.
func ZeroMomentum(a *Atoms) {
	total := a.TotalMass()
	if total == 0 {
		return
	}
	vcm := r3.Scale(1/total, a.Momentum())
	for i, v := range a.velocities {
		a.velocities[i] = r3.Sub(v, vcm)
	}
}
