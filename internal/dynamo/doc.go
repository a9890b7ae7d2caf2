// Package dynamo provides the core primitives shared by the molecular
// dynamics packages.
//
// The package defines the interfaces and types used to advance a
// particle system in time:
//
//   - [State]: flat phase-space vector, positions followed by velocities
//   - [System]: interface for equations of motion (dX/dt = f(X, t))
//   - [Hamiltonian]: systems that can report their total energy
//   - [Integrator]: numerical stepper interface
//   - [Observer]: hook called by the stepping loop
//
// # Example
//
//	sys := physics.NewCrystal(a, pot)
//	integ := integrators.NewVerlet()
//	x := sys.State()
//	x = integ.Step(sys, x, 0, dt)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT safe for concurrent use.
// [ParallelFor] is the only concurrency primitive in the package and is
// used by force evaluation to split work over atoms.
package dynamo
