package md

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/config"
	"github.com/san-kum/cumd/internal/energy"
	"github.com/san-kum/cumd/internal/integrators"
	"github.com/san-kum/cumd/internal/physics"
	"github.com/san-kum/cumd/internal/potential"
	"github.com/san-kum/cumd/internal/storage"
	"github.com/san-kum/cumd/internal/trajectory"
	"github.com/san-kum/cumd/internal/units"
)

// ErrNonFinite is returned when a report contains NaN or Inf.
var ErrNonFinite = errors.New("md: non-finite energy report")

// Simulation is a crystal ready to run: atoms with velocities drawn,
// potential attached and dynamics prepared.
type Simulation struct {
	Config    *config.Config
	Seed      uint64
	Atoms     *atoms.Atoms
	Potential potential.Potential
	Dynamics  *Dynamics
}

// Setup builds a Simulation from cfg. A zero seed is replaced with a
// time-based one, recorded in Simulation.Seed.
func Setup(cfg *config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := atoms.FaceCenteredCubic(cfg.Symbol, cfg.LatticeConstant, [3]int{cfg.Size, cfg.Size, cfg.Size}, cfg.PBC)
	if err != nil {
		return nil, err
	}

	params, err := potential.ParamsFor(cfg.Symbol)
	if err != nil {
		return nil, err
	}
	pot, err := potential.Select(cfg.Potential, params, cfg.Workers)
	if err != nil {
		return nil, err
	}
	a.SetCalculator(pot)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if err := atoms.MaxwellBoltzmann(a, cfg.Temperature*units.KB, rng); err != nil {
		return nil, err
	}
	if cfg.ZeroMomentum {
		atoms.ZeroMomentum(a)
	}

	sys, err := physics.NewCrystal(a)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.Select(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	dyn, err := New(sys, integ, cfg.TimestepFs*units.Fs)
	if err != nil {
		return nil, err
	}

	return &Simulation{Config: cfg, Seed: seed, Atoms: a, Potential: pot, Dynamics: dyn}, nil
}

// Report samples the live atoms. Non-finite reports are errors.
func (s *Simulation) Report() (energy.Report, error) {
	r, err := energy.FromSystem(s.Atoms)
	if err != nil {
		return energy.Report{}, fmt.Errorf("step %d: %w", s.Dynamics.Steps(), err)
	}
	if !r.Finite() {
		return energy.Report{}, fmt.Errorf("%w at step %d", ErrNonFinite, s.Dynamics.Steps())
	}
	return r, nil
}

// Driver runs the report loop: one report before the run, then one per
// burst of steps.
type Driver struct {
	// Out receives one report line per report. Nil discards them.
	Out    io.Writer
	Logger *slog.Logger
	// Store records the run when set; the trajectory is then written
	// inside the run directory.
	Store *storage.Store
	// OnReport is called on the driver goroutine after each report line
	// is written. a is the live system and must not be retained.
	OnReport func(step int, r energy.Report, a *atoms.Atoms)
}

type Summary struct {
	RunID       string
	Seed        uint64
	Atoms       int
	Steps       int
	Reports     []energy.Report
	Frames      int
	Trajectory  string
	EnergyDrift float64
	Elapsed     time.Duration
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func (d *Driver) out() io.Writer {
	if d.Out == nil {
		return io.Discard
	}
	return d.Out
}

// Run executes cfg. The returned summary is non-nil whenever setup
// succeeded, even if the run later failed.
func (d *Driver) Run(ctx context.Context, cfg *config.Config) (sum *Summary, err error) {
	log := d.logger()

	sim, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	sum = &Summary{Seed: sim.Seed, Atoms: sim.Atoms.Len(), Trajectory: cfg.Trajectory}
	log.Info("simulation ready",
		"symbol", cfg.Symbol,
		"atoms", sum.Atoms,
		"volume", sim.Atoms.Volume(),
		"potential", sim.Potential.Name(),
		"integrator", cfg.Integrator,
		"seed", sim.Seed)

	drift := NewEnergyDrift()
	start := time.Now()

	var traj *trajectory.Writer
	var run *storage.Run
	if d.Store != nil {
		run, err = d.Store.Create(storage.RunMetadata{
			Symbol:      cfg.Symbol,
			Atoms:       sum.Atoms,
			Size:        cfg.Size,
			Potential:   cfg.Potential,
			Integrator:  cfg.Integrator,
			TimestepFs:  cfg.TimestepFs,
			Temperature: cfg.Temperature,
			Seed:        sim.Seed,
			Trajectory:  trajName(cfg.Trajectory),
		})
		if err != nil {
			return sum, fmt.Errorf("create run: %w", err)
		}
		sum.RunID = run.ID()
		if cfg.Trajectory != "" {
			sum.Trajectory = run.Path(cfg.Trajectory)
		}
		defer func() {
			closeErr := run.Close(func(m *storage.RunMetadata) {
				m.Steps = sim.Dynamics.Steps()
				m.EnergyDrift = drift.Value()
				m.Elapsed = time.Since(start).Round(time.Millisecond).String()
				if traj != nil {
					m.Frames = traj.Frames()
				}
			}, err)
			if err == nil && closeErr != nil {
				err = fmt.Errorf("close run: %w", closeErr)
			}
		}()
	}

	if sum.Trajectory != "" {
		traj, err = trajectory.Create(sum.Trajectory)
		if err != nil {
			return sum, err
		}
		defer func() {
			sum.Frames = traj.Frames()
			if closeErr := traj.Close(); err == nil && closeErr != nil {
				err = closeErr
			}
		}()
		sim.Dynamics.Attach(func(dyn *Dynamics) error {
			return traj.Write(dyn.Atoms(), dyn.Steps(), dyn.Time())
		}, cfg.TrajectoryInterval)
	}

	emit := func() error {
		r, err := sim.Report()
		if err != nil {
			return err
		}
		step := sim.Dynamics.Steps()
		if _, err := fmt.Fprintln(d.out(), r.String()); err != nil {
			return err
		}
		drift.Observe(r)
		sum.Reports = append(sum.Reports, r)
		if run != nil {
			if err := run.Record(step, sim.Dynamics.Time()/units.Fs, r); err != nil {
				return fmt.Errorf("record step %d: %w", step, err)
			}
		}
		if d.OnReport != nil {
			d.OnReport(step, r, sim.Atoms)
		}
		log.Debug("report", "step", step, "etot", r.Total, "temperature", r.Temperature)
		return nil
	}

	if err = emit(); err != nil {
		return sum, err
	}
	for burst := 0; burst < cfg.Bursts; burst++ {
		if err = sim.Dynamics.Run(ctx, cfg.StepsPerBurst); err != nil {
			sum.Steps = sim.Dynamics.Steps()
			return sum, err
		}
		if err = emit(); err != nil {
			sum.Steps = sim.Dynamics.Steps()
			return sum, err
		}
	}

	sum.Steps = sim.Dynamics.Steps()
	sum.EnergyDrift = drift.Value()
	sum.Elapsed = time.Since(start)
	log.Info("simulation finished",
		"steps", sum.Steps,
		"energy_drift", sum.EnergyDrift,
		"elapsed", sum.Elapsed.Round(time.Millisecond))
	return sum, nil
}

func trajName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
