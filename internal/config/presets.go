package config

import (
	"sort"

	"github.com/san-kum/cumd/internal/potential"
)

// Presets mirror the two ways the copper demo is usually run: a large
// crystal on the cell-list potential, or a small one on the reference
// pairwise loop.
var Presets = map[string]*Config{
	"accelerated": {
		Symbol: "Cu", Size: 10, PBC: true, Potential: potential.NameCellList, Integrator: "verlet",
		Temperature: 300, TimestepFs: 5, Bursts: 10, StepsPerBurst: 10, TrajectoryInterval: 10,
		Trajectory: "cu.xyz",
	},
	"reference": {
		Symbol: "Cu", Size: 3, PBC: true, Potential: potential.NamePairwise, Integrator: "verlet",
		Temperature: 300, TimestepFs: 5, Bursts: 10, StepsPerBurst: 10, TrajectoryInterval: 10,
		Trajectory: "cu.xyz",
	},
	"smoke": {
		Symbol: "Cu", Size: 5, PBC: true, Potential: potential.NameCellList, Integrator: "verlet",
		Temperature: 300, TimestepFs: 5, Bursts: 2, StepsPerBurst: 5, TrajectoryInterval: 5,
		Trajectory: "cu.xyz",
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
