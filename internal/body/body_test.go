package body

import (
	"errors"
	"math"
	"testing"
)

func TestNewPoint_Mass(t *testing.T) {
	tests := []struct {
		name  string
		mass  float64
		valid bool
	}{
		{"positive", 1.0, true},
		{"tiny", 1e-12, true},
		{"zero", 0, false},
		{"negative", -3, false},
		{"NaN", math.NaN(), false},
		{"+Inf", math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPoint(1, 2, 3, 4, tt.mass)
			if tt.valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.X != 1 || p.Y != 2 || p.VX != 3 || p.VY != 4 || p.Mass != tt.mass {
					t.Errorf("fields not copied: %+v", p)
				}
				if p.FX != 0 || p.FY != 0 {
					t.Errorf("force accumulator not zero: %+v", p)
				}
				return
			}
			if !errors.Is(err, ErrNonPositiveMass) {
				t.Errorf("expected ErrNonPositiveMass, got %v", err)
			}
		})
	}
}

func TestStore_AddRejectsBadMass(t *testing.T) {
	s := NewStore(2)
	if _, err := s.Add(Point{Mass: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	for _, m := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := s.Add(Point{Mass: m}); !errors.Is(err, ErrNonPositiveMass) {
			t.Errorf("mass %g: expected ErrNonPositiveMass, got %v", m, err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 point, got %d", s.Len())
	}
}

func TestStore_PositionsIsCopy(t *testing.T) {
	s := NewStore(2)
	s.Add(Point{X: 1, Y: 2, Mass: 1})
	s.Add(Point{X: 3, Y: 4, Mass: 2})

	pos := s.Positions(nil)
	if len(pos) != 2 || pos[1] != (Vec{3, 4}) {
		t.Fatalf("unexpected positions: %v", pos)
	}

	s.At(1).X = 99
	if pos[1].X != 3 {
		t.Error("positions alias live store")
	}

	if got := s.TotalMass(); got != 3 {
		t.Errorf("TotalMass = %v, want 3", got)
	}
}

func TestStore_Clone(t *testing.T) {
	s := NewStore(1)
	s.Add(Point{X: 1, Mass: 1})
	c := s.Clone()
	c.At(0).X = 5
	if s.At(0).X != 1 {
		t.Error("Clone did not create independent copy")
	}
}
