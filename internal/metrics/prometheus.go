package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/bhsim/internal/sim"
)

const namespace = "bhsim"

// Collector exports frame statistics as prometheus metrics. It implements
// sim.Recorder.
type Collector struct {
	frames        prometheus.Counter
	frameDuration prometheus.Histogram
	points        prometheus.Gauge
	nodes         prometheus.Gauge
	depth         prometheus.Gauge
	overflowed    prometheus.Gauge
	dropped       prometheus.Counter
	reflections   prometheus.Counter
	simTime       prometheus.Gauge
	energyDrift   prometheus.Gauge
}

var _ sim.Recorder = (*Collector)(nil)

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Number of simulated frames.",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Wall time spent building the tree, evaluating forces and integrating one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		points: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "points",
			Help:      "Number of simulated points.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "nodes",
			Help:      "Quadtree nodes built in the last frame.",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "max_depth",
			Help:      "Deepest quadtree leaf in the last frame.",
		}),
		overflowed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tree",
			Name:      "overflowed_leaves",
			Help:      "Leaves at the depth cutoff holding more than their capacity in the last frame.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_points_total",
			Help:      "Points skipped at tree insertion because they were outside the domain.",
		}),
		reflections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wall_reflections_total",
			Help:      "Points reflected off a domain wall.",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulated_time_seconds",
			Help:      "Simulated time reached.",
		}),
		energyDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "energy_drift_ratio",
			Help:      "Relative change of total energy since the first observation.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.frames, c.frameDuration, c.points, c.nodes, c.depth,
		c.overflowed, c.dropped, c.reflections, c.simTime, c.energyDrift,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveFrame(s sim.FrameStats) {
	c.frames.Inc()
	c.frameDuration.Observe(s.Duration.Seconds())
	c.points.Set(float64(s.Points))
	c.nodes.Set(float64(s.Tree.Nodes))
	c.depth.Set(float64(s.Tree.MaxDepth))
	c.overflowed.Set(float64(s.Tree.Overflowed))
	c.dropped.Add(float64(s.Dropped))
	c.reflections.Add(float64(s.Reflections))
	c.simTime.Set(s.Time)
}

func (c *Collector) SetEnergyDrift(v float64) {
	c.energyDrift.Set(v)
}
