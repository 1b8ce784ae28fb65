package metrics

import (
	"math"

	"github.com/san-kum/bhsim/internal/body"
	"github.com/san-kum/bhsim/internal/gravity"
)

// EnergyDrift tracks the relative change of total energy against the first
// observation.
type EnergyDrift struct {
	name          string
	g             float64
	softening     float64
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g, softening float64) *EnergyDrift {
	return &EnergyDrift{
		name:      "energy_drift",
		g:         g,
		softening: softening,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

// Observe computes the energy of pts, O(N²), and returns the current drift.
func (e *EnergyDrift) Observe(pts []body.Point) float64 {
	energy := gravity.Energy(pts, e.g, e.softening)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	drift := e.Drift()
	e.maxDrift = math.Max(e.maxDrift, drift)
	return drift
}

// Drift is |E - E0| / |E0| for the latest observation.
func (e *EnergyDrift) Drift() float64 {
	if e.initialEnergy == 0 {
		return 0
	}
	return math.Abs(e.currentEnergy-e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Energy() float64  { return e.currentEnergy }
func (e *EnergyDrift) Initial() float64 { return e.initialEnergy }

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
