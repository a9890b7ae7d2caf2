package atoms

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/units"
)

// fccBasis is the four-atom conventional cell in fractional coordinates.
var fccBasis = [4]r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 0, Y: 0.5, Z: 0.5},
	{X: 0.5, Y: 0, Z: 0.5},
	{X: 0.5, Y: 0.5, Z: 0},
}

// FaceCenteredCubic builds an FCC crystal oriented along the cubic axes
// with size[i] conventional cells along each direction. A non-positive
// lattice constant selects the element's reference value.
func FaceCenteredCubic(symbol string, latticeConstant float64, size [3]int, pbc bool) (*Atoms, error) {
	for _, s := range size {
		if s <= 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSize, size)
		}
	}

	if latticeConstant <= 0 {
		a, err := units.LatticeConstant(symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownElement, symbol)
		}
		latticeConstant = a
	}

	positions := make([]r3.Vec, 0, 4*size[0]*size[1]*size[2])
	for i := 0; i < size[0]; i++ {
		for j := 0; j < size[1]; j++ {
			for k := 0; k < size[2]; k++ {
				origin := r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}
				for _, b := range fccBasis {
					positions = append(positions, r3.Scale(latticeConstant, r3.Add(origin, b)))
				}
			}
		}
	}

	cell := r3.Vec{
		X: latticeConstant * float64(size[0]),
		Y: latticeConstant * float64(size[1]),
		Z: latticeConstant * float64(size[2]),
	}
	return New(symbol, positions, cell, [3]bool{pbc, pbc, pbc})
}
