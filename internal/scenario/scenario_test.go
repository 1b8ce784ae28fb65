package scenario

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/bhsim/internal/config"
)

func TestGenerateDisk(t *testing.T) {
	cfg := config.DefaultConfig()
	store, err := Generate(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if store.Len() != cfg.Scenario.Bodies+1 {
		t.Fatalf("expected %d points, got %d", cfg.Scenario.Bodies+1, store.Len())
	}

	c := store.At(0)
	if c.X != 400 || c.Y != 300 || c.Mass != cfg.Scenario.CentralMass || c.VX != 0 || c.VY != 0 {
		t.Errorf("unexpected central body %+v", *c)
	}

	for i := 1; i < store.Len(); i++ {
		p := store.At(i)
		if p.Mass < cfg.Scenario.MassMin || p.Mass > cfg.Scenario.MassMax {
			t.Errorf("point %d: mass %g out of range", i, p.Mass)
		}
		rx, ry := p.X-c.X, p.Y-c.Y
		r := math.Hypot(rx, ry)
		if r < cfg.Scenario.RadiusMin-1e-9 || r > cfg.Scenario.RadiusMax+1e-9 {
			t.Errorf("point %d: radius %g out of range", i, r)
		}

		speed := math.Hypot(p.VX, p.VY)
		want := math.Sqrt(cfg.Physics.G * cfg.Scenario.CentralMass / r)
		if math.Abs(speed-want) > 1e-9*want {
			t.Errorf("point %d: speed %g, want %g", i, speed, want)
		}
		if dot := rx*p.VX + ry*p.VY; math.Abs(dot) > 1e-6*r*speed {
			t.Errorf("point %d: velocity not perpendicular to radius (dot %g)", i, dot)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := config.DefaultConfig()
	a, _ := Generate(cfg, rand.New(rand.NewSource(7)))
	b, _ := Generate(cfg, rand.New(rand.NewSource(7)))

	for i := range a.Points() {
		if a.Points()[i] != b.Points()[i] {
			t.Fatalf("point %d differs between identical seeds", i)
		}
	}
}

func TestGenerateClampsIntoDomain(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Domain.Width, cfg.Domain.Height = 100, 100
	cfg.Scenario.RadiusMin, cfg.Scenario.RadiusMax = 200, 300

	store, err := Generate(cfg, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range store.Points() {
		if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
			t.Errorf("point %d outside domain: (%g, %g)", i, p.X, p.Y)
		}
	}
}

func TestGenerateBinary(t *testing.T) {
	cfg := config.GetPreset("binary")
	cfg.Scenario.Bodies = 10

	store, err := Generate(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 12 {
		t.Fatalf("expected 12 points, got %d", store.Len())
	}

	a, b := store.At(0), store.At(1)
	if a.Mass+b.Mass != cfg.Scenario.CentralMass {
		t.Errorf("central masses %g + %g != %g", a.Mass, b.Mass, cfg.Scenario.CentralMass)
	}
	if b.X-a.X != cfg.Scenario.Separation {
		t.Errorf("separation %g, want %g", b.X-a.X, cfg.Scenario.Separation)
	}
	if a.VY+b.VY != 0 {
		t.Errorf("pair has net momentum: %g", a.VY+b.VY)
	}
}

func TestGenerateNoSatellites(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario.Bodies = 0
	store, err := Generate(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Errorf("expected only the central body, got %d", store.Len())
	}
}

func TestGenerateRejectsBadMass(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario.CentralMass = -1
	if _, err := Generate(cfg, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for negative central mass")
	}
}
