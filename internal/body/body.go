// Package body holds the mutable per-body state shared by the force
// evaluator and the integrator.
package body

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonPositiveMass is returned when a point is created with mass <= 0.
var ErrNonPositiveMass = errors.New("body: mass must be positive")

// Point is a planar point mass. FX/FY accumulate force between integrations.
type Point struct {
	X, Y   float64
	VX, VY float64
	Mass   float64
	FX, FY float64
}

// NewPoint validates mass and returns a point with a zeroed force accumulator.
func NewPoint(x, y, vx, vy, mass float64) (Point, error) {
	if !validMass(mass) {
		return Point{}, fmt.Errorf("%w: got %g", ErrNonPositiveMass, mass)
	}
	return Point{X: x, Y: y, VX: vx, VY: vy, Mass: mass}, nil
}

// validMass rejects zero, negative, NaN and infinite masses.
func validMass(m float64) bool {
	return m > 0 && !math.IsInf(m, 0)
}

func (p *Point) ResetForce() {
	p.FX, p.FY = 0, 0
}

// Vec is a plain 2D coordinate.
type Vec struct {
	X, Y float64
}

func (p *Point) Pos() Vec { return Vec{p.X, p.Y} }

// Store owns every point of a run. The backing slice never grows after
// construction finishes, so *Point references handed to the tree stay valid.
type Store struct {
	points []Point
}

func NewStore(capacity int) *Store {
	return &Store{points: make([]Point, 0, capacity)}
}

// Add appends a validated point and returns its index.
func (s *Store) Add(p Point) (int, error) {
	if !validMass(p.Mass) {
		return -1, fmt.Errorf("point %d: %w: got %g", len(s.points), ErrNonPositiveMass, p.Mass)
	}
	s.points = append(s.points, p)
	return len(s.points) - 1, nil
}

func (s *Store) Len() int { return len(s.points) }

func (s *Store) At(i int) *Point { return &s.points[i] }

// Points exposes the live slice. Callers must not append to it.
func (s *Store) Points() []Point { return s.points }

// Positions copies the current positions into dst (reallocating if needed).
func (s *Store) Positions(dst []Vec) []Vec {
	if cap(dst) < len(s.points) {
		dst = make([]Vec, len(s.points))
	}
	dst = dst[:len(s.points)]
	for i := range s.points {
		dst[i] = Vec{s.points[i].X, s.points[i].Y}
	}
	return dst
}

// TotalMass sums every point's mass.
func (s *Store) TotalMass() float64 {
	m := 0.0
	for i := range s.points {
		m += s.points[i].Mass
	}
	return m
}

// Clone deep-copies the store.
func (s *Store) Clone() *Store {
	c := &Store{points: make([]Point, len(s.points))}
	copy(c.points, s.points)
	return c
}
