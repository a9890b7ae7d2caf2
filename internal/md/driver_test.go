package md_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/config"
	"github.com/san-kum/cumd/internal/energy"
	"github.com/san-kum/cumd/internal/md"
	"github.com/san-kum/cumd/internal/potential"
	"github.com/san-kum/cumd/internal/storage"
	"github.com/san-kum/cumd/internal/testutil"
	"github.com/san-kum/cumd/internal/trajectory"
)

func referenceConfig(dir string) *config.Config {
	cfg := config.GetPreset("reference")
	cfg.Seed = 42
	cfg.Trajectory = filepath.Join(dir, "cu.xyz")
	return cfg
}

var _ = Describe("Setup", func() {
	It("is deterministic for a fixed seed", func() {
		cfg := referenceConfig(GinkgoT().TempDir())
		a, err := md.Setup(cfg)
		Expect(err).NotTo(HaveOccurred())
		b, err := md.Setup(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Seed).To(Equal(uint64(42)))
		Expect(a.Atoms.Len()).To(Equal(108))
		Expect(a.Atoms.Velocities()).To(Equal(b.Atoms.Velocities()))
		Expect(a.Potential.Name()).To(Equal(potential.NamePairwise))
	})

	It("draws a seed when none is given", func() {
		cfg := referenceConfig(GinkgoT().TempDir())
		cfg.Seed = 0
		sim, err := md.Setup(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.Seed).NotTo(BeZero())
	})

	It("removes centre-of-mass motion on request", func() {
		cfg := referenceConfig(GinkgoT().TempDir())
		cfg.ZeroMomentum = true
		sim, err := md.Setup(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.Atoms.Momentum().X).To(BeNumerically("~", 0, 1e-9))
	})

	It("rejects invalid configurations", func() {
		cfg := referenceConfig(GinkgoT().TempDir())
		cfg.Potential = "emt"
		_, err := md.Setup(cfg)
		Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
	})
})

var _ = Describe("Driver", func() {
	var (
		out bytes.Buffer
		dir string
	)

	BeforeEach(func() {
		out.Reset()
		dir = GinkgoT().TempDir()
	})

	It("prints one report before the run and one per burst", func() {
		cfg := referenceConfig(dir)
		var steps []int
		d := &md.Driver{Out: &out, OnReport: func(step int, r energy.Report, _ *atoms.Atoms) {
			steps = append(steps, step)
		}}

		sum, err := d.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(cfg.Bursts + 1))
		for i, line := range lines {
			Expect(line).To(HavePrefix("Energy per atom: Epot = "))
			Expect(line).To(Equal(sum.Reports[i].String()))
		}
		Expect(steps).To(Equal([]int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}))
		Expect(sum.Steps).To(Equal(cfg.TotalSteps()))
	})

	It("starts near the requested temperature and conserves energy", func() {
		cfg := referenceConfig(dir)
		sum, err := (&md.Driver{Out: &out}).Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())

		first, last := sum.Reports[0], sum.Reports[len(sum.Reports)-1]
		Expect(first.Potential).To(BeNumerically("~", -2.7758, 1e-3))
		Expect(first.Temperature).To(BeNumerically("~", 300, 90))
		Expect(last.Temperature).To(BeNumerically("<", first.Temperature))
		Expect(sum.EnergyDrift).To(BeNumerically("<", 5e-3))
		for _, r := range sum.Reports {
			Expect(r.Total).To(Equal(r.Potential + r.Kinetic))
		}
	})

	It("writes a trajectory frame every interval including step zero", func() {
		cfg := referenceConfig(dir)
		sum, err := (&md.Driver{Out: &out}).Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.Frames).To(Equal(11))

		frames, err := trajectory.ReadAll(cfg.Trajectory)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(HaveLen(11))
		Expect(frames[0].Step).To(Equal(0))
		Expect(frames[10].Step).To(Equal(100))
		Expect(frames[10].Time).To(BeNumerically("~", 500, 1e-6))
		Expect(frames[3].Len()).To(Equal(108))
	})

	It("agrees with the accelerated potential on the same crystal", func() {
		cfg := referenceConfig(dir)
		cfg.Bursts = 2
		ref, err := (&md.Driver{}).Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())

		cfg.Potential = potential.NameCellList
		cfg.Trajectory = ""
		acc, err := (&md.Driver{}).Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())

		for i := range ref.Reports {
			Expect(acc.Reports[i].Total).To(BeNumerically("~", ref.Reports[i].Total, 1e-9))
		}
	})

	It("records the run in the store", func() {
		store := storage.New(filepath.Join(dir, "runs"))
		cfg := referenceConfig(dir)
		cfg.Bursts = 3

		d := &md.Driver{Out: &out, Store: store, Logger: testutil.NewTestLogger(GinkgoT())}
		sum, err := d.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum.RunID).NotTo(BeEmpty())

		meta, err := store.Load(sum.RunID)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Status).To(Equal("completed"))
		Expect(meta.Seed).To(Equal(uint64(42)))
		Expect(meta.Reports).To(Equal(4))
		Expect(meta.Steps).To(Equal(30))
		Expect(meta.Frames).To(Equal(4))

		rows, err := store.LoadReports(sum.RunID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(4))
		Expect(rows[3].Step).To(Equal(30))
		Expect(rows[3].TimeFs).To(BeNumerically("~", 150, 1e-6))

		frames, err := trajectory.ReadAll(store.TrajectoryPath(meta))
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(HaveLen(4))
	})

	It("prints nothing when the first report cannot be computed", func() {
		store := storage.New(filepath.Join(dir, "runs"))
		cfg := referenceConfig(dir)
		cfg.Size = 2

		sum, err := (&md.Driver{Out: &out, Store: store}).Run(context.Background(), cfg)
		Expect(errors.Is(err, potential.ErrCutoffTooLarge)).To(BeTrue())
		Expect(out.Len()).To(BeZero())
		Expect(sum.Reports).To(BeEmpty())

		meta, err := store.Load(sum.RunID)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.Status).To(Equal("failed"))
		Expect(meta.Error).To(ContainSubstring("cutoff"))
	})

	It("stops on cancellation after the initial report", func() {
		cfg := referenceConfig(dir)
		ctx, cancel := context.WithCancel(context.Background())
		d := &md.Driver{Out: &out, OnReport: func(int, energy.Report, *atoms.Atoms) { cancel() }}

		sum, err := d.Run(ctx, cfg)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(sum.Reports).To(HaveLen(1))
		Expect(strings.Count(out.String(), "\n")).To(Equal(1))
	})
})
