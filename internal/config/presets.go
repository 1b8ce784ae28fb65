package config

import "slices"

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"dense": with(func(c *Config) {
		c.Scenario.Bodies = 2000
		c.Scenario.MassMin, c.Scenario.MassMax = 1e2, 1e4
		c.Tree.Capacity = 4
		c.Physics.Theta = 0.7
		c.Substeps = 4
	}),
	"exact": with(func(c *Config) {
		c.Physics.Theta = 0
		c.Scenario.Bodies = 200
	}),
	"coarse": with(func(c *Config) {
		c.Physics.Theta = 1.2
		c.Scenario.Bodies = 1000
	}),
	"binary": with(func(c *Config) {
		c.Scenario.Kind = ScenarioBinary
		c.Scenario.Separation = 60
		c.Scenario.RadiusMin = 80
		c.Scenario.Bodies = 300
	}),
}

func with(fn func(c *Config)) *Config {
	c := DefaultConfig()
	fn(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
