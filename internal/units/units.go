// Package units defines the unit system used throughout cumd: lengths in
// Å, energies in eV, masses in amu. Time is derived from those three, so
// one time unit is about 10.18 fs.
package units

import (
	"fmt"
	"math"
	"sort"
)

// CODATA 2018.
const (
	elementaryCharge = 1.602176634e-19 // C
	boltzmann        = 1.380649e-23    // J/K
	atomicMassUnit   = 1.66053906660e-27
)

const (
	// KB is the Boltzmann constant in eV/K.
	KB = boltzmann / elementaryCharge
)

var (
	// Second is one SI second expressed in internal time units.
	Second = 1e10 * math.Sqrt(elementaryCharge/atomicMassUnit)
	Fs     = 1e-15 * Second
)

type element struct {
	mass    float64
	lattice float64 // reference FCC lattice constant, Å; 0 if not FCC
}

var elements = map[string]element{
	"Ni": {mass: 58.6934, lattice: 3.52},
	"Cu": {mass: 63.546, lattice: 3.61},
	"Pd": {mass: 106.42, lattice: 3.89},
	"Ag": {mass: 107.8682, lattice: 4.09},
	"Pt": {mass: 195.084, lattice: 3.92},
	"Au": {mass: 196.96657, lattice: 4.08},
	"Al": {mass: 26.9815385, lattice: 4.05},
}

// Mass returns the standard atomic mass of symbol in amu.
func Mass(symbol string) (float64, error) {
	el, ok := elements[symbol]
	if !ok {
		return 0, fmt.Errorf("units: unknown element %q", symbol)
	}
	return el.mass, nil
}

// LatticeConstant returns the reference FCC lattice constant of symbol.
func LatticeConstant(symbol string) (float64, error) {
	el, ok := elements[symbol]
	if !ok || el.lattice == 0 {
		return 0, fmt.Errorf("units: no FCC lattice constant for %q", symbol)
	}
	return el.lattice, nil
}

// Elements lists the known element symbols in sorted order.
func Elements() []string {
	names := make([]string, 0, len(elements))
	for name := range elements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
