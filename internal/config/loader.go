package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment overrides, e.g. CUMD_SIZE=5.
const EnvPrefix = "CUMD_"

// flagKeys maps CLI flag names to config keys. Flags not listed here
// (--config, --preset, --data, ...) never reach the config.
var flagKeys = map[string]string{
	"symbol":           "symbol",
	"lattice-constant": "lattice_constant",
	"size":             "size",
	"pbc":              "pbc",
	"potential":        "potential",
	"integrator":       "integrator",
	"temperature":      "temperature",
	"timestep":         "timestep_fs",
	"bursts":           "bursts",
	"steps":            "steps_per_burst",
	"interval":         "trajectory_interval",
	"trajectory":       "trajectory",
	"seed":             "seed",
	"zero-momentum":    "zero_momentum",
	"workers":          "workers",
}

type LoadOptions struct {
	Path   string
	Preset string
	Flags  *pflag.FlagSet
}

// Load builds the effective configuration.
// Precedence (highest to lowest): flags > env vars > config file > preset > defaults
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(DefaultConfig().toMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if opts.Preset != "" {
		preset := GetPreset(opts.Preset)
		if preset == nil {
			return nil, fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalid, opts.Preset, ListPresets())
		}
		if err := k.Load(confmap.Provider(preset.toMap(), "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load preset: %w", err)
		}
	}

	if opts.Path != "" {
		if _, err := os.Stat(opts.Path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(opts.Path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", opts.Path, err)
		}
	}

	// CUMD_STEPS_PER_BURST -> steps_per_burst
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RegisterFlags adds the run flags to fs. Their defaults are only shown
// in help text; unchanged flags are never loaded.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String("symbol", d.Symbol, "chemical symbol of the crystal")
	fs.Float64("lattice-constant", d.LatticeConstant, "lattice constant in Å (0 = reference value)")
	fs.Int("size", d.Size, "conventional cells along each axis")
	fs.Bool("pbc", d.PBC, "periodic boundary conditions")
	fs.String("potential", d.Potential, "interatomic potential (lj-cell, lj-pair)")
	fs.String("integrator", d.Integrator, "integrator (verlet, leapfrog)")
	fs.Float64("temperature", d.Temperature, "initial temperature in K")
	fs.Float64("timestep", d.TimestepFs, "timestep in fs")
	fs.Int("bursts", d.Bursts, "number of reporting bursts")
	fs.Int("steps", d.StepsPerBurst, "integration steps per burst")
	fs.Int("interval", d.TrajectoryInterval, "trajectory write interval in steps")
	fs.String("trajectory", d.Trajectory, "trajectory file name")
	fs.Uint64("seed", d.Seed, "velocity seed (0 = random)")
	fs.Bool("zero-momentum", d.ZeroMomentum, "remove centre-of-mass drift after sampling velocities")
	fs.Int("workers", d.Workers, "force evaluation workers (0 = GOMAXPROCS)")
}
