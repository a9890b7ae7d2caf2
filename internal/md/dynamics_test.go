package md_test

import (
	"context"
	"errors"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/dynamo"
	"github.com/san-kum/cumd/internal/energy"
	"github.com/san-kum/cumd/internal/integrators"
	"github.com/san-kum/cumd/internal/md"
	"github.com/san-kum/cumd/internal/physics"
	"github.com/san-kum/cumd/internal/potential"
	"github.com/san-kum/cumd/internal/units"
)

func newDynamics(size int, name string) *md.Dynamics {
	a, err := atoms.FaceCenteredCubic("Cu", 0, [3]int{size, size, size}, true)
	Expect(err).NotTo(HaveOccurred())
	pot, err := potential.Select(name, potential.Copper, 2)
	Expect(err).NotTo(HaveOccurred())
	a.SetCalculator(pot)
	Expect(atoms.MaxwellBoltzmann(a, 300*units.KB, rand.New(rand.NewPCG(7, 11)))).To(Succeed())

	sys, err := physics.NewCrystal(a)
	Expect(err).NotTo(HaveOccurred())
	dyn, err := md.New(sys, integrators.NewVerlet(), 5*units.Fs)
	Expect(err).NotTo(HaveOccurred())
	return dyn
}

var _ = Describe("Dynamics", func() {
	It("rejects a non-positive timestep", func() {
		a, err := atoms.FaceCenteredCubic("Cu", 0, [3]int{3, 3, 3}, true)
		Expect(err).NotTo(HaveOccurred())
		a.SetCalculator(potential.NewPairwise(potential.Copper))
		sys, err := physics.NewCrystal(a)
		Expect(err).NotTo(HaveOccurred())

		_, err = md.New(sys, integrators.NewVerlet(), 0)
		Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
	})

	It("calls observers at step zero and then every interval", func() {
		dyn := newDynamics(3, potential.NamePairwise)
		var every10, every4 []int
		dyn.Attach(func(d *md.Dynamics) error {
			every10 = append(every10, d.Steps())
			return nil
		}, 10)
		dyn.Attach(func(d *md.Dynamics) error {
			every4 = append(every4, d.Steps())
			return nil
		}, 4)

		for i := 0; i < 3; i++ {
			Expect(dyn.Run(context.Background(), 10)).To(Succeed())
		}

		Expect(every10).To(Equal([]int{0, 10, 20, 30}))
		Expect(every4).To(Equal([]int{0, 4, 8, 12, 16, 20, 24, 28}))
		Expect(dyn.Steps()).To(Equal(30))
		Expect(dyn.Time()).To(BeNumerically("~", 30*5*units.Fs, 1e-12))
	})

	It("stops when an observer fails", func() {
		dyn := newDynamics(3, potential.NamePairwise)
		boom := errors.New("boom")
		dyn.Attach(func(d *md.Dynamics) error {
			if d.Steps() == 2 {
				return boom
			}
			return nil
		}, 1)

		Expect(dyn.Run(context.Background(), 10)).To(MatchError(boom))
		Expect(dyn.Steps()).To(Equal(2))
	})

	It("honours context cancellation between steps", func() {
		dyn := newDynamics(3, potential.NamePairwise)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := dyn.Run(ctx, 5)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(dyn.Steps()).To(Equal(0))
	})

	It("moves the live atoms and conserves energy", func() {
		dyn := newDynamics(3, potential.NamePairwise)
		a := dyn.Atoms()
		start, err := energy.FromSystem(a)
		Expect(err).NotTo(HaveOccurred())
		before := a.Positions()[0]

		Expect(dyn.Run(context.Background(), 50)).To(Succeed())

		end, err := energy.FromSystem(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Positions()[0]).NotTo(Equal(before))
		Expect(end.Total).To(BeNumerically("~", start.Total, 5e-3))
		Expect(end.Potential).To(BeNumerically(">", start.Potential))
	})

	It("reports an invalid state when forces cannot be evaluated", func() {
		a, err := atoms.FaceCenteredCubic("Cu", 0, [3]int{3, 3, 3}, true)
		Expect(err).NotTo(HaveOccurred())
		a.SetCalculator(potential.NewPairwise(potential.Params{Epsilon: 0.4093, Sigma: 2.338, Cutoff: 6}))
		sys, err := physics.NewCrystal(a)
		Expect(err).NotTo(HaveOccurred())
		dyn, err := md.New(sys, integrators.NewVerlet(), 5*units.Fs)
		Expect(err).NotTo(HaveOccurred())

		err = dyn.Run(context.Background(), 3)
		Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
		Expect(errors.Is(err, potential.ErrCutoffTooLarge)).To(BeTrue())

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(0))
	})
})

var _ = Describe("EnergyDrift", func() {
	It("tracks the largest deviation from the first sample", func() {
		d := md.NewEnergyDrift()
		Expect(d.Name()).To(Equal("energy_drift"))
		for _, etot := range []float64{-2.7, -2.69, -2.72, -2.705} {
			d.Observe(energy.Report{Total: etot})
		}
		Expect(d.Samples()).To(Equal(4))
		Expect(d.Value()).To(BeNumerically("~", 0.02, 1e-12))

		d.Reset()
		Expect(d.Samples()).To(BeZero())
		Expect(d.Value()).To(BeZero())
	})
})
