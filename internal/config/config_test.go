package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Cu", cfg.Symbol)
	assert.Equal(t, 10, cfg.Size)
	assert.Equal(t, "lj-cell", cfg.Potential)
	assert.Equal(t, 100, cfg.TotalSteps())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{"zero size", func(c *Config) { c.Size = 0 }, "size must be positive"},
		{"negative temperature", func(c *Config) { c.Temperature = -1 }, "temperature"},
		{"zero timestep", func(c *Config) { c.TimestepFs = 0 }, "timestep_fs"},
		{"zero bursts", func(c *Config) { c.Bursts = 0 }, "bursts"},
		{"zero steps", func(c *Config) { c.StepsPerBurst = 0 }, "steps_per_burst"},
		{"zero interval", func(c *Config) { c.TrajectoryInterval = 0 }, "trajectory_interval"},
		{"unknown potential", func(c *Config) { c.Potential = "emt" }, "unknown potential"},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk4" }, "unknown integrator"},
		{"missing symbol", func(c *Config) { c.Symbol = "" }, "symbol is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"accelerated", "reference", "smoke"}, names)

	for _, name := range names {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.NoError(t, cfg.Validate(), name)
	}

	ref := GetPreset("reference")
	assert.Equal(t, 3, ref.Size)
	assert.Equal(t, "lj-pair", ref.Potential)

	ref.Size = 99
	assert.Equal(t, 3, GetPreset("reference").Size, "GetPreset must return a copy")

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: 4\ntemperature: 500\npotential: lj-pair\nbursts: 3\n"), 0644))

	t.Setenv("CUMD_TEMPERATURE", "600")
	t.Setenv("CUMD_STEPS_PER_BURST", "7")

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	RegisterFlags(fs)
	fs.String("data", ".cumd", "unrelated flag")
	require.NoError(t, fs.Parse([]string{"--temperature", "700", "--data", "elsewhere"}))

	cfg, err := Load(LoadOptions{Path: path, Preset: "reference", Flags: fs})
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Size, "file overrides preset")
	assert.Equal(t, "lj-pair", cfg.Potential)
	assert.Equal(t, 3, cfg.Bursts)
	assert.Equal(t, 7, cfg.StepsPerBurst, "env overrides defaults")
	assert.Equal(t, 700.0, cfg.Temperature, "flag overrides env and file")
	assert.Equal(t, 5.0, cfg.TimestepFs, "unchanged flag keeps lower layers")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(LoadOptions{Preset: "nonexistent"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: -2\n"), 0644))
	_, err = Load(LoadOptions{Path: path})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("reference")
	cfg.Seed = 42

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
