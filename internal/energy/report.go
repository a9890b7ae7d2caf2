// Package energy turns system-wide energies into the per-atom figures
// printed while a simulation runs.
package energy

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/cumd/internal/units"
)

// ErrInvalidParticleCount is returned when the particle count is zero
// or negative.
var ErrInvalidParticleCount = errors.New("energy: particle count must be positive")

// Report holds intensive (per-atom) energies in eV and the instantaneous
// temperature in K. Total is always Potential + Kinetic.
type Report struct {
	Potential   float64
	Kinetic     float64
	Temperature float64
	Total       float64
}

// Compute derives a Report from a particle count and the total potential
// and kinetic energies. NaN and Inf inputs are passed through unchanged.
func Compute(n int, epot, ekin float64) (Report, error) {
	if n <= 0 {
		return Report{}, fmt.Errorf("%w: got %d", ErrInvalidParticleCount, n)
	}
	p := epot / float64(n)
	k := ekin / float64(n)
	return Report{
		Potential:   p,
		Kinetic:     k,
		Temperature: k / (1.5 * units.KB),
		Total:       p + k,
	}, nil
}

// Source is a particle system that can be sampled for a report.
type Source interface {
	Len() int
	PotentialEnergy() (float64, error)
	KineticEnergy() float64
}

// FromSystem samples src at the current instant.
func FromSystem(src Source) (Report, error) {
	epot, err := src.PotentialEnergy()
	if err != nil {
		return Report{}, err
	}
	return Compute(src.Len(), epot, src.KineticEnergy())
}

// Finite reports whether every field is a finite number.
func (r Report) Finite() bool {
	for _, v := range [...]float64{r.Potential, r.Kinetic, r.Temperature, r.Total} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (r Report) String() string {
	return fmt.Sprintf("Energy per atom: Epot = %.3feV  Ekin = %.3feV (T=%3.0fK)  Etot = %.3feV",
		r.Potential, r.Kinetic, r.Temperature, r.Total)
}
