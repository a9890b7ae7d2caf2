package dynamo

import "math"

// State is a phase-space vector. Particle systems lay it out as all
// position components followed by all velocity components.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Positions returns the first half of the state without copying.
func (s State) Positions() []float64 { return s[:len(s)/2] }

// Velocities returns the second half of the state without copying.
func (s State) Velocities() []float64 { return s[len(s)/2:] }

// System describes second-order equations of motion. Derive returns
// [v | a] for a state [x | v].
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Name() string
	Step(sys System, x State, t float64, dt float64) State
}

// Resetter is implemented by integrators that cache data between steps
// and need to drop it when the state is changed externally.
type Resetter interface {
	Reset()
}
