package energy_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/energy"
	"github.com/san-kum/cumd/internal/potential"
	"github.com/san-kum/cumd/internal/units"
)

type fakeSource struct {
	n    int
	epot float64
	ekin float64
	err  error
}

func (f fakeSource) Len() int                          { return f.n }
func (f fakeSource) PotentialEnergy() (float64, error) { return f.epot, f.err }
func (f fakeSource) KineticEnergy() float64            { return f.ekin }

var _ = Describe("Compute", func() {
	DescribeTable("total is the exact sum of potential and kinetic",
		func(n int, epot, ekin float64) {
			r, err := energy.Compute(n, epot, ekin)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Total).To(Equal(r.Potential + r.Kinetic))
			Expect(r.Potential).To(Equal(epot / float64(n)))
			Expect(r.Kinetic).To(Equal(ekin / float64(n)))
		},
		Entry("single atom", 1, -3.5, 0.04),
		Entry("small crystal", 108, -299.8, 4.19),
		Entry("large crystal", 4000, -11103.4, 155.1),
		Entry("awkward fractions", 7, 1e-7, 3.3333),
		Entry("positive potential", 3, 12.0, 0.5),
	)

	It("returns zeros for a system at rest with no potential energy", func() {
		for _, n := range []int{1, 2, 500} {
			r, err := energy.Compute(n, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(energy.Report{}))
		}
	})

	It("matches the worked two-particle example", func() {
		r, err := energy.Compute(2, -10.0, 5.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Potential).To(Equal(-5.0))
		Expect(r.Kinetic).To(Equal(2.5))
		Expect(r.Total).To(Equal(-2.5))
		Expect(r.Temperature).To(BeNumerically("~", 2.5/(1.5*units.KB), 1e-9))
		Expect(r.Temperature).To(BeNumerically("~", 19340.86, 0.01))
	})

	DescribeTable("rejects non-positive particle counts",
		func(n int) {
			r, err := energy.Compute(n, 1.0, 1.0)
			Expect(errors.Is(err, energy.ErrInvalidParticleCount)).To(BeTrue())
			Expect(r).To(Equal(energy.Report{}))
		},
		Entry("zero", 0),
		Entry("negative", -4),
	)

	It("is bit-identical across calls", func() {
		a, _ := energy.Compute(4000, -11103.456789, 155.123456)
		b, _ := energy.Compute(4000, -11103.456789, 155.123456)
		Expect(math.Float64bits(a.Temperature)).To(Equal(math.Float64bits(b.Temperature)))
		Expect(a).To(Equal(b))
	})

	It("propagates non-finite energies", func() {
		r, err := energy.Compute(10, math.NaN(), 1.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsNaN(r.Potential)).To(BeTrue())
		Expect(math.IsNaN(r.Total)).To(BeTrue())
		Expect(r.Finite()).To(BeFalse())

		r, _ = energy.Compute(10, -1.0, math.Inf(1))
		Expect(r.Finite()).To(BeFalse())

		r, _ = energy.Compute(10, -1.0, 1.0)
		Expect(r.Finite()).To(BeTrue())
	})
})

var _ = Describe("Report", func() {
	It("renders the diagnostic line", func() {
		r := energy.Report{Potential: -2.7758, Kinetic: 0.0388, Temperature: 300.2, Total: -2.737}
		Expect(r.String()).To(Equal("Energy per atom: Epot = -2.776eV  Ekin = 0.039eV (T=300K)  Etot = -2.737eV"))
	})

	It("pads low temperatures to three columns", func() {
		r := energy.Report{Temperature: 7}
		Expect(r.String()).To(ContainSubstring("(T=  7K)"))
	})
})

var _ = Describe("FromSystem", func() {
	It("reads the aggregate scalars of the source", func() {
		r, err := energy.FromSystem(fakeSource{n: 4, epot: -8, ekin: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Potential).To(Equal(-2.0))
		Expect(r.Kinetic).To(Equal(0.5))
	})

	It("propagates calculator failures", func() {
		boom := errors.New("boom")
		_, err := energy.FromSystem(fakeSource{n: 4, err: boom})
		Expect(err).To(MatchError(boom))
	})

	It("rejects an empty system", func() {
		_, err := energy.FromSystem(fakeSource{})
		Expect(err).To(MatchError(energy.ErrInvalidParticleCount))
	})

	Context("with a 5x5x5 copper crystal at rest", func() {
		var a *atoms.Atoms

		BeforeEach(func() {
			var err error
			a, err = atoms.FaceCenteredCubic("Cu", 0, [3]int{5, 5, 5}, true)
			Expect(err).NotTo(HaveOccurred())
			a.SetCalculator(potential.NewCellList(potential.Copper, 0))
		})

		It("reports a bound crystal at zero temperature", func() {
			r, err := energy.FromSystem(a)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Potential).To(BeNumerically("~", -2.7758, 1e-3))
			Expect(r.Kinetic).To(BeZero())
			Expect(r.Temperature).To(BeZero())
			Expect(r.Total).To(Equal(r.Potential))
		})
	})
})
