package integrators

import "github.com/san-kum/cumd/internal/dynamo"

// Verlet is the velocity Verlet scheme. The acceleration at the end of
// a step is kept and reused by the next step when that step starts from
// the same positions, so a step costs one force evaluation.
type Verlet struct {
	prevAcc dynamo.State
	prevPos dynamo.State
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

// Reset drops the cached acceleration.
func (v *Verlet) Reset() {
	v.prevAcc = nil
	v.prevPos = nil
}

func (v *Verlet) ensureScratch(n int) {
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
		v.Reset()
	}
}

func (v *Verlet) cached(x dynamo.State) bool {
	if v.prevAcc == nil {
		return false
	}
	pos := x.Positions()
	for i := range pos {
		if pos[i] != v.prevPos[i] {
			return false
		}
	}
	return true
}

func (v *Verlet) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	v.ensureScratch(n)

	var acc dynamo.State
	if v.cached(x) {
		acc = v.prevAcc
	} else {
		acc = sys.Derive(x, t)[half:].Clone()
	}

	result := make(dynamo.State, n)
	dt2 := dt * dt

	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*acc[i]*dt2
	}

	for i := 0; i < half; i++ {
		v.scratch[i] = result[i]
		v.scratch[half+i] = x[half+i]
	}

	accNew := sys.Derive(v.scratch, t+dt)[half:]

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (acc[i]+accNew[i])*halfDt
	}

	v.prevAcc = accNew.Clone()
	v.prevPos = result[:half].Clone()

	return result
}

// Leapfrog is the kick-drift-kick form. It evaluates forces twice per
// step and keeps no state between steps.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2

	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := sys.Derive(x, t)
	halfDt := dt * 0.5

	for i := 0; i < half; i++ {
		l.scratch[half+i] = x[half+i] + dx[half+i]*halfDt
	}

	for i := 0; i < half; i++ {
		result[i] = x[i] + l.scratch[half+i]*dt
		l.scratch[i] = result[i]
	}

	dxNew := sys.Derive(l.scratch, t+dt)

	for i := 0; i < half; i++ {
		result[half+i] = l.scratch[half+i] + dxNew[half+i]*halfDt
	}

	return result
}
