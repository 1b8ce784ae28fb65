package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/bhsim/internal/body"
)

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(1, 0)

	pts := []body.Point{
		{X: 0, Y: 0, VX: 1, Mass: 2},
		{X: 3, Y: 4, Mass: 3},
	}
	e0 := 0.5*2*1 - 2*3/5.0

	if d := m.Observe(pts); d != 0 {
		t.Errorf("expected zero drift on first sample, got %g", d)
	}
	if math.Abs(m.Initial()-e0) > 1e-12 {
		t.Errorf("expected initial energy %g, got %g", e0, m.Initial())
	}

	pts[0].VX = 2
	e1 := 0.5*2*4 - 2*3/5.0
	want := math.Abs(e1-e0) / math.Abs(e0)

	if d := m.Observe(pts); math.Abs(d-want) > 1e-12 {
		t.Errorf("expected drift %g, got %g", want, d)
	}

	pts[0].VX = 1
	m.Observe(pts)
	if m.Drift() > 1e-12 {
		t.Errorf("expected drift back to zero, got %g", m.Drift())
	}
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected max drift %g, got %g", want, m.Value())
	}
}

func TestEnergyDriftReset(t *testing.T) {
	m := NewEnergyDrift(1, 1)
	m.Observe([]body.Point{{VX: 1, Mass: 1}})
	m.Reset()

	if m.Value() != 0 || m.Energy() != 0 || m.Initial() != 0 {
		t.Error("reset left state behind")
	}
	if m.Name() != "energy_drift" {
		t.Errorf("unexpected name %s", m.Name())
	}
}
