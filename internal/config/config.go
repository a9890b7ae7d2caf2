package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cumd/internal/integrators"
	"github.com/san-kum/cumd/internal/potential"
)

const (
	DefaultSymbol             = "Cu"
	DefaultSize               = 10
	DefaultTemperature        = 300.0
	DefaultTimestepFs         = 5.0
	DefaultBursts             = 10
	DefaultStepsPerBurst      = 10
	DefaultTrajectoryInterval = 10
	DefaultTrajectory         = "cu.xyz"
)

var ErrInvalid = errors.New("config: invalid configuration")

// Config describes one constant-energy run. Zero LatticeConstant picks
// the element's reference value; zero Seed draws a fresh seed.
type Config struct {
	Symbol             string  `koanf:"symbol" yaml:"symbol"`
	LatticeConstant    float64 `koanf:"lattice_constant" yaml:"lattice_constant"`
	Size               int     `koanf:"size" yaml:"size"`
	PBC                bool    `koanf:"pbc" yaml:"pbc"`
	Potential          string  `koanf:"potential" yaml:"potential"`
	Integrator         string  `koanf:"integrator" yaml:"integrator"`
	Temperature        float64 `koanf:"temperature" yaml:"temperature"`
	TimestepFs         float64 `koanf:"timestep_fs" yaml:"timestep_fs"`
	Bursts             int     `koanf:"bursts" yaml:"bursts"`
	StepsPerBurst      int     `koanf:"steps_per_burst" yaml:"steps_per_burst"`
	TrajectoryInterval int     `koanf:"trajectory_interval" yaml:"trajectory_interval"`
	Trajectory         string  `koanf:"trajectory" yaml:"trajectory"`
	Seed               uint64  `koanf:"seed" yaml:"seed"`
	ZeroMomentum       bool    `koanf:"zero_momentum" yaml:"zero_momentum"`
	Workers            int     `koanf:"workers" yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Symbol:             DefaultSymbol,
		Size:               DefaultSize,
		PBC:                true,
		Potential:          potential.NameCellList,
		Integrator:         "verlet",
		Temperature:        DefaultTemperature,
		TimestepFs:         DefaultTimestepFs,
		Bursts:             DefaultBursts,
		StepsPerBurst:      DefaultStepsPerBurst,
		TrajectoryInterval: DefaultTrajectoryInterval,
		Trajectory:         DefaultTrajectory,
	}
}

// TotalSteps is the number of integration steps of the whole run.
func (c *Config) TotalSteps() int { return c.Bursts * c.StepsPerBurst }

func (c *Config) Validate() error {
	var errs []error
	if c.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if c.LatticeConstant < 0 {
		errs = append(errs, fmt.Errorf("lattice_constant must not be negative, got %g", c.LatticeConstant))
	}
	if c.Size <= 0 {
		errs = append(errs, fmt.Errorf("size must be positive, got %d", c.Size))
	}
	if c.Temperature < 0 {
		errs = append(errs, fmt.Errorf("temperature must not be negative, got %g", c.Temperature))
	}
	if c.TimestepFs <= 0 {
		errs = append(errs, fmt.Errorf("timestep_fs must be positive, got %g", c.TimestepFs))
	}
	if c.Bursts <= 0 {
		errs = append(errs, fmt.Errorf("bursts must be positive, got %d", c.Bursts))
	}
	if c.StepsPerBurst <= 0 {
		errs = append(errs, fmt.Errorf("steps_per_burst must be positive, got %d", c.StepsPerBurst))
	}
	if c.TrajectoryInterval <= 0 {
		errs = append(errs, fmt.Errorf("trajectory_interval must be positive, got %d", c.TrajectoryInterval))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if _, err := potential.Select(c.Potential, potential.Copper, 0); err != nil {
		errs = append(errs, err)
	}
	if c.Symbol != "" {
		if _, err := potential.ParamsFor(c.Symbol); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := integrators.Select(c.Integrator); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func (c *Config) toMap() map[string]interface{} {
	return map[string]interface{}{
		"symbol":              c.Symbol,
		"lattice_constant":    c.LatticeConstant,
		"size":                c.Size,
		"pbc":                 c.PBC,
		"potential":           c.Potential,
		"integrator":          c.Integrator,
		"temperature":         c.Temperature,
		"timestep_fs":         c.TimestepFs,
		"bursts":              c.Bursts,
		"steps_per_burst":     c.StepsPerBurst,
		"trajectory_interval": c.TrajectoryInterval,
		"trajectory":          c.Trajectory,
		"seed":                c.Seed,
		"zero_momentum":       c.ZeroMomentum,
		"workers":             c.Workers,
	}
}
