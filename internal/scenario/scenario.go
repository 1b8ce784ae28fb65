// Package scenario builds initial point sets: a heavy central body (or a
// bound pair) with satellites on circular orbits around it.
package scenario

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/bhsim/internal/body"
	"github.com/san-kum/bhsim/internal/config"
)

// Generate returns the initial points for cfg. The central bodies come
// first. cfg is assumed to be valid.
func Generate(cfg *config.Config, rng *rand.Rand) (*body.Store, error) {
	s := cfg.Scenario
	w, h := cfg.Domain.Width, cfg.Domain.Height
	cx, cy := w/2, h/2

	store := body.NewStore(s.Bodies + 2)

	switch s.Kind {
	case config.ScenarioBinary:
		// two equal halves on a circular orbit about their common centre
		m := s.CentralMass / 2
		a := s.Separation / 2
		v := math.Sqrt(cfg.Physics.G * m / (2 * s.Separation))
		if err := add(store, cx-a, cy, s.CentralVX, s.CentralVY-v, m); err != nil {
			return nil, err
		}
		if err := add(store, cx+a, cy, s.CentralVX, s.CentralVY+v, m); err != nil {
			return nil, err
		}
	default:
		if err := add(store, cx, cy, s.CentralVX, s.CentralVY, s.CentralMass); err != nil {
			return nil, err
		}
	}

	for i := 0; i < s.Bodies; i++ {
		angle := rng.Float64() * 2 * math.Pi
		r := s.RadiusMin + rng.Float64()*(s.RadiusMax-s.RadiusMin)
		speed := math.Sqrt(cfg.Physics.G * s.CentralMass / r)
		mass := s.MassMin + rng.Float64()*(s.MassMax-s.MassMin)

		x := clamp(cx+r*math.Cos(angle), w)
		y := clamp(cy+r*math.Sin(angle), h)
		vx := -speed * math.Sin(angle)
		vy := speed * math.Cos(angle)

		if err := add(store, x, y, vx, vy, mass); err != nil {
			return nil, fmt.Errorf("scenario: satellite %d: %w", i, err)
		}
	}

	return store, nil
}

func add(store *body.Store, x, y, vx, vy, mass float64) error {
	p, err := body.NewPoint(x, y, vx, vy, mass)
	if err != nil {
		return err
	}
	_, err = store.Add(p)
	return err
}

func clamp(v, max float64) float64 {
	return math.Min(math.Max(v, 0), max)
}
