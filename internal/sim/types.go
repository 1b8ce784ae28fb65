package sim

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/san-kum/bhsim/internal/body"
	"github.com/san-kum/bhsim/internal/quadtree"
)

// Snapshot is what a frame publishes to renderers. Its slices are fresh
// copies and are never touched by the simulator after publication.
type Snapshot struct {
	Frame   uint64
	Time    float64
	Points  []body.Vec
	Dropped int
	Tree    quadtree.Stats

	rects []quadtree.Rect
}

// Rects yields the rectangles of every tree node, or nothing when the grid
// was disabled for this frame.
func (s *Snapshot) Rects() iter.Seq[quadtree.Rect] {
	return slices.Values(s.rects)
}

func (s *Snapshot) HasGrid() bool { return s.rects != nil }

func (s *Snapshot) Valid() bool {
	for _, p := range s.Points {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// FrameStats summarises one frame for metrics and run recording.
type FrameStats struct {
	Frame       uint64
	Time        float64
	Duration    time.Duration
	Points      int
	Dropped     int
	Reflections int
	Tree        quadtree.Stats
}

// Recorder receives per-frame statistics.
type Recorder interface {
	ObserveFrame(FrameStats)
}

type Observer interface {
	OnFrame(snap *Snapshot) error
}

type ObserverFunc func(snap *Snapshot) error

func (f ObserverFunc) OnFrame(snap *Snapshot) error { return f(snap) }

// Recorders fans frame statistics out to several recorders.
type Recorders []Recorder

func (rs Recorders) ObserveFrame(s FrameStats) {
	for _, r := range rs {
		r.ObserveFrame(s)
	}
}
