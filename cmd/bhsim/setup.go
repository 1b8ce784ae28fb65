package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/bhsim/internal/config"
	"github.com/san-kum/bhsim/internal/gravity"
	"github.com/san-kum/bhsim/internal/metrics"
	"github.com/san-kum/bhsim/internal/scenario"
	"github.com/san-kum/bhsim/internal/sim"
	"github.com/san-kum/bhsim/internal/storage"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

// resolveConfig layers the preset, the config file and explicitly set flags,
// in that order, and validates the result.
func resolveConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if flags.Changed("bodies") {
		cfg.Scenario.Bodies = numBodies
	}
	if flags.Changed("theta") {
		cfg.Physics.Theta = theta
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("capacity") {
		cfg.Tree.Capacity = capacity
	}
	if flags.Changed("max-depth") {
		cfg.Tree.MaxDepth = maxDepth
	}
	if flags.Changed("softening") {
		cfg.Physics.Softening = softening
	}
	if flags.Changed("g") {
		cfg.Physics.G = gravConst
	}
	if flags.Changed("fps") {
		cfg.FPS = frameRate
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		klog.Infof("using seed %d", cfg.Seed)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSimulator generates the configured scenario and wraps it in a simulator.
func newSimulator(cfg *config.Config, opts ...sim.Option) (*sim.Simulator, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	store, err := scenario.Generate(cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("generate scenario: %w", err)
	}
	return sim.New(cfg, store, opts...)
}

// startMetrics registers a collector on a fresh registry and serves it on
// metricsAddr. It returns a nil collector when no address is configured.
// The returned stop function shuts the server down.
func startMetrics() (*metrics.Collector, func(), error) {
	if metricsAddr == "" {
		return nil, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		klog.Infof("serving metrics on %s/metrics", metricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("metrics server: %v", err)
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			klog.Warningf("metrics server shutdown: %v", err)
		}
	}
	return c, stop, nil
}

// newEnergyObserver samples the current state as the drift baseline, then
// returns an observer that measures drift every n frames and attaches it to
// rec and, when set, the collector.
func newEnergyObserver(s *sim.Simulator, rec *storage.Recorder, c *metrics.Collector, n int) (*metrics.EnergyDrift, sim.Observer) {
	cfg := s.Config()
	drift := metrics.NewEnergyDrift(cfg.Physics.G, cfg.Physics.Softening)
	drift.Observe(s.Store().Points())

	obs := sim.ObserverFunc(func(snap *sim.Snapshot) error {
		if n <= 0 || snap.Frame%uint64(n) != 0 {
			return nil
		}
		pts := s.Store().Points()
		d := drift.Observe(pts)
		px, py := gravity.Momentum(pts)
		rec.Annotate(drift.Energy(), d, px, py)
		if c != nil {
			c.SetEnergyDrift(d)
		}
		klog.V(2).Infof("frame %d: energy=%.6g drift=%.3e", snap.Frame, drift.Energy(), d)
		return nil
	})
	return drift, obs
}
