package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/bhsim/internal/config"
	"github.com/san-kum/bhsim/internal/export"
	"github.com/san-kum/bhsim/internal/gravity"
	"github.com/san-kum/bhsim/internal/quadtree"
	"github.com/san-kum/bhsim/internal/scenario"
	"github.com/san-kum/bhsim/internal/sim"
	"github.com/san-kum/bhsim/internal/storage"
	"github.com/san-kum/bhsim/internal/viz"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

func runLive(cmd *cobra.Command, args []string) error {
	// the alt screen owns the terminal, so logs go to a file unless the
	// user asked for somewhere else
	if !cmd.Flags().Changed("logtostderr") && !cmd.Flags().Changed("log_file") {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}
		_ = klogFlags.Set("logtostderr", "false")
		_ = klogFlags.Set("log_file", filepath.Join(dataDir, "bhsim.log"))
	}

	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}

	collector, stop, err := startMetrics()
	if err != nil {
		return err
	}
	defer stop()

	opts := []sim.Option{sim.WithGrid(liveGrid)}
	if collector != nil {
		opts = append(opts, sim.WithRecorder(collector))
	}
	s, err := newSimulator(cfg, opts...)
	if err != nil {
		return err
	}

	return viz.Run(s, viz.WithEnergyEvery(energyEvery))
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	collector, stop, err := startMetrics()
	if err != nil {
		return err
	}
	defer stop()

	rec := storage.NewRecorder(runFrames)
	rs := sim.Recorders{rec}
	if collector != nil {
		rs = append(rs, collector)
	}

	s, err := newSimulator(cfg, sim.WithRecorder(rs))
	if err != nil {
		return err
	}

	drift, observer := newEnergyObserver(s, rec, collector, energyEvery)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	runErr := s.Run(ctx, runFrames, observer)
	wall := time.Since(start)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		klog.Errorf("run stopped: %v", runErr)
	}

	records := rec.Records()
	var dropped int
	for _, r := range records {
		dropped += r.Dropped
	}

	meta := storage.RunMetadata{
		Preset:    presetName(),
		Timestamp: start,
		Seed:      cfg.Seed,
		Bodies:    s.Store().Len(),
		Frames:    len(records),
		Config:    cfg,
		Metrics: map[string]float64{
			"energy_drift_max": drift.Value(),
			"sim_time":         s.Time(),
			"wall_seconds":     wall.Seconds(),
			"dropped":          float64(dropped),
		},
	}
	id, err := st.Save(meta, records)
	if err != nil {
		return err
	}

	if runDump {
		w := bufio.NewWriter(os.Stdout)
		if err := s.Tree().Dump(w); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fps := 0.0
	if wall > 0 {
		fps = float64(len(records)) / wall.Seconds()
	}
	stats := s.Tree().Stats()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", id)
	fmt.Fprintf(w, "bodies\t%d\n", s.Store().Len())
	fmt.Fprintf(w, "frames\t%d\n", len(records))
	fmt.Fprintf(w, "sim time\t%.4f\n", s.Time())
	fmt.Fprintf(w, "wall time\t%v\n", wall.Round(time.Millisecond))
	fmt.Fprintf(w, "frames/sec\t%.1f\n", fps)
	fmt.Fprintf(w, "max energy drift\t%.3e\n", drift.Value())
	fmt.Fprintf(w, "dropped\t%d\n", dropped)
	fmt.Fprintf(w, "tree\t%d nodes, %d leaves, depth %d\n", stats.Nodes, stats.Leaves, stats.MaxDepth)
	if err := w.Flush(); err != nil {
		return err
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func presetName() string {
	if preset == "" {
		return "default"
	}
	return preset
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIMESTAMP\tBODIES\tFRAMES\tTHETA\tDRIFT")
	for _, r := range runs {
		th := math.NaN()
		if r.Config != nil {
			th = r.Config.Physics.Theta
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.3e\n",
			r.ID, r.Preset, r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Bodies, r.Frames, th, r.Metrics["energy_drift_max"])
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("run %s has no frames", args[0])
	}

	var drift, nodes, millis []float64
	for _, r := range records {
		if !math.IsNaN(r.Drift) {
			drift = append(drift, r.Drift)
		}
		nodes = append(nodes, float64(r.Nodes))
		millis = append(millis, float64(r.Duration.Microseconds())/1000)
	}

	fmt.Printf("run %s (%s, %d bodies, seed %d)\n\n", meta.ID, meta.Preset, meta.Bodies, meta.Seed)
	if len(drift) > 0 {
		fmt.Println(asciigraph.Plot(drift,
			asciigraph.Height(10), asciigraph.Width(80),
			asciigraph.Caption("relative energy drift")))
		fmt.Println()
	}
	fmt.Println(asciigraph.Plot(nodes,
		asciigraph.Height(6), asciigraph.Width(80),
		asciigraph.Caption("quadtree nodes")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(millis,
		asciigraph.Height(6), asciigraph.Width(80),
		asciigraph.Caption("frame time (ms)")))
	return nil
}

type accuracyResult struct {
	theta  float64
	err    float64
	nodes  int
	elapse time.Duration
}

func accuracySweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	store, err := scenario.Generate(cfg, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return err
	}

	pts := store.Points()
	refX, refY := gravity.Direct(pts, cfg.Physics.G, cfg.Physics.Softening)
	bounds := quadtree.Rect{
		W: math.Nextafter(cfg.Domain.Width, math.Inf(1)),
		H: math.Nextafter(cfg.Domain.Height, math.Inf(1)),
	}

	limit := cfg.Workers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]accuracyResult, len(thetas))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(limit)
	for i, th := range thetas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if th < 0 {
				return fmt.Errorf("%w: theta %g", config.ErrInvalid, th)
			}

			local := store.Clone()
			tree := quadtree.New(bounds, cfg.Tree.Capacity, cfg.Tree.MaxDepth)
			for j := range local.Len() {
				tree.Insert(local.At(j))
			}

			start := time.Now()
			gravity.AccumulateAll(local.Points(), tree, gravity.Params{
				G:         cfg.Physics.G,
				Softening: cfg.Physics.Softening,
				Theta:     th,
			})
			elapsed := time.Since(start)

			fx, fy := gravity.Forces(local.Points())
			results[i] = accuracyResult{
				theta:  th,
				err:    gravity.RelativeError(fx, fy, refX, refY),
				nodes:  tree.Len(),
				elapse: elapsed,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("%d bodies, direct reference\n\n", store.Len())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THETA\tREL ERROR\tNODES\tFORCE TIME")
	series := make([]float64, 0, len(results))
	for _, r := range results {
		fmt.Fprintf(w, "%.2f\t%.3e\t%d\t%v\n", r.theta, r.err, r.nodes, r.elapse.Round(time.Microsecond))
		series = append(series, r.err)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(series) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10), asciigraph.Width(60),
			asciigraph.Caption("relative force error by theta")))
	}
	return nil
}

func benchFrames(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if benchFrameN < 1 {
		return fmt.Errorf("frames must be at least 1")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tFRAMES\tTOTAL\tPER FRAME\tFRAMES/SEC\tNODES\tDEPTH")
	for _, n := range sizes {
		cfg := base.Clone()
		cfg.Scenario.Bodies = n
		if err := cfg.Validate(); err != nil {
			return err
		}
		s, err := newSimulator(cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		var snap *sim.Snapshot
		for range benchFrameN {
			snap = s.Step()
		}
		elapsed := time.Since(start)

		per := elapsed / time.Duration(benchFrameN)
		fmt.Fprintf(w, "%d\t%d\t%v\t%v\t%.1f\t%d\t%d\n",
			n, benchFrameN, elapsed.Round(time.Millisecond), per.Round(time.Microsecond),
			float64(benchFrameN)/elapsed.Seconds(), snap.Tree.Nodes, snap.Tree.MaxDepth)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCENARIO\tBODIES\tTHETA\tCAPACITY\tSUBSTEPS")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%d\t%d\n",
			name, c.Scenario.Kind, c.Scenario.Bodies, c.Physics.Theta, c.Tree.Capacity, c.Substeps)
	}
	return w.Flush()
}

func snapshotSVG(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	s, err := newSimulator(cfg, sim.WithGrid(snapshotGrid))
	if err != nil {
		return err
	}
	if err := s.Run(cmd.Context(), max(snapshotFrames, 1), nil); err != nil {
		return err
	}
	snap := s.Latest()

	f, err := os.Create(svgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if braille {
		c := viz.NewCanvas(160, 60)
		viz.DrawSnapshot(c, snap, cfg.Domain.Width, cfg.Domain.Height)
		if _, err := f.WriteString(export.CanvasToSVG(c, 4)); err != nil {
			return err
		}
	} else {
		if err := export.SnapshotSVG(f, snap, cfg.Domain.Width, cfg.Domain.Height, export.DefaultSVGOptions()); err != nil {
			return err
		}
	}

	if snapshotDump {
		if err := s.Tree().Dump(os.Stdout); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %s (frame %d, %d points, %d nodes)\n", svgPath, snap.Frame, len(snap.Points), snap.Tree.Nodes)
	return f.Close()
}
