package sim

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync/atomic"
	"time"

	"k8s.io/klog/v2"

	"github.com/san-kum/bhsim/internal/body"
	"github.com/san-kum/bhsim/internal/config"
	"github.com/san-kum/bhsim/internal/gravity"
	"github.com/san-kum/bhsim/internal/integrators"
	"github.com/san-kum/bhsim/internal/quadtree"
)

// minChunk is the smallest range of points handed to one force worker.
const minChunk = 64

type Simulator struct {
	cfg      *config.Config
	store    *body.Store
	tree     *quadtree.Tree
	integ    *integrators.Euler
	params   gravity.Params
	workers  int
	recorder Recorder

	frame uint64
	time  float64

	grid   atomic.Bool
	latest atomic.Pointer[Snapshot]
}

type Option func(*Simulator)

// WithRecorder reports every frame's statistics to r.
func WithRecorder(r Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

func WithGrid(on bool) Option {
	return func(s *Simulator) { s.grid.Store(on) }
}

// New validates cfg and prepares a simulator over store. The simulator owns
// store from here on.
func New(cfg *config.Config, store *body.Store, opts ...Option) (*Simulator, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The integrator clamps onto the far walls, so the root is widened by one
	// ulp to keep x == W and y == H insertable under half-open containment.
	root := quadtree.Rect{
		W: math.Nextafter(cfg.Domain.Width, math.Inf(1)),
		H: math.Nextafter(cfg.Domain.Height, math.Inf(1)),
	}

	s := &Simulator{
		cfg:   cfg,
		store: store,
		tree:  quadtree.New(root, cfg.Tree.Capacity, cfg.Tree.MaxDepth),
		integ: integrators.NewEuler(integrators.Domain{W: cfg.Domain.Width, H: cfg.Domain.Height}),
		params: gravity.Params{
			G:         cfg.Physics.G,
			Softening: cfg.Physics.Softening,
			Theta:     cfg.Physics.Theta,
		},
		workers: cfg.Workers,
	}
	for _, opt := range opts {
		opt(s)
	}

	klog.V(1).InfoS("Simulator ready",
		"points", store.Len(), "domain", fmt.Sprintf("%gx%g", cfg.Domain.Width, cfg.Domain.Height),
		"theta", cfg.Physics.Theta, "substeps", cfg.Substeps, "dt", cfg.Dt)
	return s, nil
}

func (s *Simulator) Config() *config.Config { return s.cfg }
func (s *Simulator) Store() *body.Store     { return s.store }

// Tree exposes the tree built by the last frame. Not safe while Step runs.
func (s *Simulator) Tree() *quadtree.Tree { return s.tree }

func (s *Simulator) Frame() uint64 { return s.frame }
func (s *Simulator) Time() float64 { return s.time }

func (s *Simulator) SetGrid(on bool)   { s.grid.Store(on) }
func (s *Simulator) GridEnabled() bool { return s.grid.Load() }

// ToggleGrid flips the grid flag and returns the new value.
func (s *Simulator) ToggleGrid() bool {
	for {
		old := s.grid.Load()
		if s.grid.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Latest returns the most recently published snapshot, or nil before the
// first frame.
func (s *Simulator) Latest() *Snapshot { return s.latest.Load() }

// Energy returns the total energy of the current state, O(N²).
func (s *Simulator) Energy() float64 {
	return gravity.Energy(s.store.Points(), s.params.G, s.params.Softening)
}

// Step runs one frame and publishes its snapshot.
func (s *Simulator) Step() *Snapshot {
	start := time.Now()
	pts := s.store.Points()

	s.tree.Clear()
	dropped := 0
	for i := range pts {
		if !s.tree.Insert(&pts[i]) {
			dropped++
			klog.Warningf("Point %d at (%g, %g) is outside the domain, skipped for frame %d", i, pts[i].X, pts[i].Y, s.frame)
		}
	}

	reflections := 0
	for k := 0; k < s.cfg.Substeps; k++ {
		ParallelFor(len(pts), s.workers, minChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				gravity.Accumulate(&pts[i], s.tree, s.params)
			}
		})
		reflections += s.integ.Step(pts, s.cfg.Dt)
		s.time += s.cfg.Dt
	}

	stats := s.tree.Stats()
	snap := &Snapshot{
		Frame:   s.frame,
		Time:    s.time,
		Points:  s.store.Positions(nil),
		Dropped: dropped,
		Tree:    stats,
	}
	if s.grid.Load() {
		snap.rects = slices.AppendSeq(make([]quadtree.Rect, 0, stats.Nodes), s.tree.Rects())
	}
	s.latest.Store(snap)

	elapsed := time.Since(start)
	klog.V(4).Infof("frame %d: %d nodes, depth %d, %d dropped, %d reflections in %v",
		s.frame, stats.Nodes, stats.MaxDepth, dropped, reflections, elapsed)

	if s.recorder != nil {
		s.recorder.ObserveFrame(FrameStats{
			Frame:       s.frame,
			Time:        s.time,
			Duration:    elapsed,
			Points:      len(pts),
			Dropped:     dropped,
			Reflections: reflections,
			Tree:        stats,
		})
	}

	s.frame++
	return snap
}

// Run steps until ctx is done, frames frames have run (0 means no limit), or
// obs returns an error. Cancellation is only observed between frames.
func (s *Simulator) Run(ctx context.Context, frames int, obs Observer) error {
	for i := 0; frames <= 0 || i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		snap := s.Step()
		if !snap.Valid() {
			return &FrameError{Frame: snap.Frame, Time: snap.Time, Wrapped: ErrUnstable}
		}
		if obs == nil {
			continue
		}
		if err := obs.OnFrame(snap); err != nil {
			return &FrameError{Frame: snap.Frame, Time: snap.Time, Wrapped: err}
		}
	}
	return nil
}
