// Package md runs constant-energy molecular dynamics: it steps a
// [physics.Crystal] with an integrator, calls attached observers at
// fixed step intervals and drives the report loop of a whole run.
package md

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/dynamo"
	"github.com/san-kum/cumd/internal/physics"
)

// Observer is called with the dynamics after the live atoms have been
// updated. A non-nil error stops the run.
type Observer func(d *Dynamics) error

type attachment struct {
	fn       Observer
	interval int
}

type Dynamics struct {
	sys       *physics.Crystal
	integ     dynamo.Integrator
	dt        float64
	steps     int
	started   bool
	observers []attachment
}

// New prepares NVE dynamics with timestep dt in internal time units.
func New(sys *physics.Crystal, integ dynamo.Integrator, dt float64) (*Dynamics, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: timestep must be positive, got %g", dynamo.ErrParameterBounds, dt)
	}
	if r, ok := integ.(dynamo.Resetter); ok {
		r.Reset()
	}
	return &Dynamics{sys: sys, integ: integ, dt: dt}, nil
}

// Attach registers fn to run every interval steps, and once before the
// first step.
func (d *Dynamics) Attach(fn Observer, interval int) {
	if interval < 1 {
		interval = 1
	}
	d.observers = append(d.observers, attachment{fn: fn, interval: interval})
}

func (d *Dynamics) Atoms() *atoms.Atoms { return d.sys.Atoms() }

func (d *Dynamics) Steps() int { return d.steps }

// Time returns the elapsed simulation time in internal units.
func (d *Dynamics) Time() float64 { return float64(d.steps) * d.dt }

func (d *Dynamics) notify() error {
	for _, o := range d.observers {
		if d.steps%o.interval == 0 {
			if err := o.fn(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run advances the system by steps integration steps.
func (d *Dynamics) Run(ctx context.Context, steps int) error {
	if steps < 0 {
		return fmt.Errorf("%w: negative step count %d", dynamo.ErrParameterBounds, steps)
	}

	if !d.started {
		d.started = true
		if err := d.notify(); err != nil {
			return err
		}
	}

	x := d.sys.State()
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		next := d.integ.Step(d.sys, x, d.Time(), d.dt)
		if !next.IsValid() {
			err := d.sys.Err()
			if err == nil {
				err = dynamo.ErrInvalidState
			} else {
				err = errors.Join(dynamo.ErrInvalidState, err)
			}
			return &dynamo.SimulationError{Step: d.steps, Time: d.Time(), Wrapped: err}
		}

		x = next
		d.steps++
		if err := d.sys.Apply(x); err != nil {
			return err
		}
		if err := d.notify(); err != nil {
			return err
		}
	}

	return nil
}
