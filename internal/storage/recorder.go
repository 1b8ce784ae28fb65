package storage

import (
	"math"

	"github.com/san-kum/bhsim/internal/sim"
)

// Recorder turns per-frame simulator statistics into FrameRecords.
type Recorder struct {
	records []FrameRecord
}

var _ sim.Recorder = (*Recorder)(nil)

func NewRecorder(capacity int) *Recorder {
	return &Recorder{records: make([]FrameRecord, 0, capacity)}
}

func (r *Recorder) ObserveFrame(s sim.FrameStats) {
	nan := math.NaN()
	r.records = append(r.records, FrameRecord{
		Frame:       s.Frame,
		Time:        s.Time,
		Energy:      nan,
		Drift:       nan,
		PX:          nan,
		PY:          nan,
		Nodes:       s.Tree.Nodes,
		Depth:       s.Tree.MaxDepth,
		Overflowed:  s.Tree.Overflowed,
		Dropped:     s.Dropped,
		Reflections: s.Reflections,
		Duration:    s.Duration,
	})
}

// Annotate attaches energy diagnostics to the most recent frame.
func (r *Recorder) Annotate(energy, drift, px, py float64) {
	if len(r.records) == 0 {
		return
	}
	last := &r.records[len(r.records)-1]
	last.Energy, last.Drift, last.PX, last.PY = energy, drift, px, py
}

func (r *Recorder) Records() []FrameRecord { return r.records }
