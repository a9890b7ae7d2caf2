// Package physics adapts particle systems to the [dynamo.System]
// interface so generic integrators can advance them.
//
//   - [Crystal]: a periodic crystal driven by an interatomic potential
//
// [Crystal] also implements [dynamo.Hamiltonian]:
//
//	sys, _ := physics.NewCrystal(a)
//	if h, ok := any(sys).(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(sys.State())
//	}
package physics
