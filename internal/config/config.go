package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth       = 800.0
	DefaultHeight      = 600.0
	DefaultG           = 0.01
	DefaultSoftening   = 10.0
	DefaultTheta       = 0.5
	DefaultCapacity    = 1
	DefaultMaxDepth    = 32
	DefaultDt          = 1e-4
	DefaultSubsteps    = 10
	DefaultFPS         = 60
	DefaultBodies      = 100
	DefaultCentralMass = 1e10
	DefaultMassMin     = 1e3
	DefaultMassMax     = 1e5
	DefaultRadiusMin   = 20.0
	DefaultRadiusMax   = 280.0
)

const (
	ScenarioDisk   = "disk"
	ScenarioBinary = "binary"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Domain   DomainConfig   `yaml:"domain"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Tree     TreeConfig     `yaml:"tree"`
	Dt       float64        `yaml:"dt"`
	Substeps int            `yaml:"substeps"`
	Workers  int            `yaml:"workers"`
	FPS      int            `yaml:"fps"`
	Seed     int64          `yaml:"seed"`
	Scenario ScenarioConfig `yaml:"scenario"`
}

type DomainConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type PhysicsConfig struct {
	G         float64 `yaml:"g"`
	Softening float64 `yaml:"softening"`
	Theta     float64 `yaml:"theta"`
}

type TreeConfig struct {
	Capacity int `yaml:"capacity"`
	MaxDepth int `yaml:"max_depth"`
}

type ScenarioConfig struct {
	Kind        string  `yaml:"kind"`
	Bodies      int     `yaml:"bodies"`
	CentralMass float64 `yaml:"central_mass"`
	CentralVX   float64 `yaml:"central_vx"`
	CentralVY   float64 `yaml:"central_vy"`
	MassMin     float64 `yaml:"mass_min"`
	MassMax     float64 `yaml:"mass_max"`
	RadiusMin   float64 `yaml:"radius_min"`
	RadiusMax   float64 `yaml:"radius_max"`
	// Separation of the two central bodies in the binary scenario.
	Separation float64 `yaml:"separation"`
}

func DefaultConfig() *Config {
	return &Config{
		Domain: DomainConfig{Width: DefaultWidth, Height: DefaultHeight},
		Physics: PhysicsConfig{
			G:         DefaultG,
			Softening: DefaultSoftening,
			Theta:     DefaultTheta,
		},
		Tree:     TreeConfig{Capacity: DefaultCapacity, MaxDepth: DefaultMaxDepth},
		Dt:       DefaultDt,
		Substeps: DefaultSubsteps,
		FPS:      DefaultFPS,
		Scenario: ScenarioConfig{
			Kind:        ScenarioDisk,
			Bodies:      DefaultBodies,
			CentralMass: DefaultCentralMass,
			MassMin:     DefaultMassMin,
			MassMax:     DefaultMassMax,
			RadiusMin:   DefaultRadiusMin,
			RadiusMax:   DefaultRadiusMax,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto decodes the file at path over cfg. Keys missing from the file
// keep their current values.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
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

// Validate reports every out-of-range field at once. The result wraps
// ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	check(c.Domain.Width > 0 && finite(c.Domain.Width), "domain.width must be positive, got %g", c.Domain.Width)
	check(c.Domain.Height > 0 && finite(c.Domain.Height), "domain.height must be positive, got %g", c.Domain.Height)
	check(c.Physics.G >= 0 && finite(c.Physics.G), "physics.g must be non-negative, got %g", c.Physics.G)
	check(c.Physics.Softening >= 0 && finite(c.Physics.Softening), "physics.softening must be non-negative, got %g", c.Physics.Softening)
	check(c.Physics.Theta >= 0 && !math.IsNaN(c.Physics.Theta), "physics.theta must be non-negative, got %g", c.Physics.Theta)
	check(c.Tree.Capacity >= 1, "tree.capacity must be at least 1, got %d", c.Tree.Capacity)
	check(c.Tree.MaxDepth >= 1, "tree.max_depth must be at least 1, got %d", c.Tree.MaxDepth)
	check(c.Dt > 0 && finite(c.Dt), "dt must be positive, got %g", c.Dt)
	check(c.Substeps >= 1, "substeps must be at least 1, got %d", c.Substeps)
	check(c.Workers >= 0, "workers must be non-negative, got %d", c.Workers)
	check(c.FPS > 0, "fps must be positive, got %d", c.FPS)

	s := c.Scenario
	check(s.Kind == ScenarioDisk || s.Kind == ScenarioBinary, "scenario.kind must be %q or %q, got %q", ScenarioDisk, ScenarioBinary, s.Kind)
	check(s.Bodies >= 0, "scenario.bodies must be non-negative, got %d", s.Bodies)
	check(s.CentralMass > 0 && finite(s.CentralMass), "scenario.central_mass must be positive, got %g", s.CentralMass)
	check(s.MassMin > 0 && s.MassMin <= s.MassMax && finite(s.MassMax),
		"scenario mass range must satisfy 0 < mass_min <= mass_max, got [%g, %g]", s.MassMin, s.MassMax)
	check(s.RadiusMin > 0 && s.RadiusMin <= s.RadiusMax && finite(s.RadiusMax),
		"scenario radius range must satisfy 0 < radius_min <= radius_max, got [%g, %g]", s.RadiusMin, s.RadiusMax)
	if s.Kind == ScenarioBinary {
		check(s.Separation > 0 && finite(s.Separation), "scenario.separation must be positive for a binary, got %g", s.Separation)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
