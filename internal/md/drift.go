package md

import (
	"math"

	"github.com/san-kum/cumd/internal/energy"
)

// EnergyDrift tracks how far the total energy per atom wanders from its
// first observed value. In NVE dynamics it measures integration error.
type EnergyDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(r energy.Report) {
	if e.samples == 0 {
		e.initial = r.Total
	}
	e.samples++
	e.maxDrift = math.Max(e.maxDrift, math.Abs(r.Total-e.initial))
}

// Value is the largest |Etot - Etot(0)| seen so far, in eV/atom.
func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Samples() int { return e.samples }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
