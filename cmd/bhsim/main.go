package main

import (
	"flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	dataDir    string
	configFile string
	preset     string

	// Overrides, applied only when the flag is set explicitly.
	numBodies int
	theta     float64
	dt        float64
	substeps  int
	workers   int
	seed      int64
	capacity  int
	maxDepth  int
	softening float64
	gravConst float64
	frameRate int

	metricsAddr string
	energyEvery int

	liveGrid bool

	runFrames int
	runDump   bool

	thetas []float64

	sizes       []int
	benchFrameN int

	snapshotFrames int
	snapshotGrid   bool
	snapshotDump   bool
	svgPath        string
	braille        bool
)

var klogFlags = newKlogFlags()

func newKlogFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(fs)
	return fs
}

func main() {
	defer klog.Flush()

	if err := newRootCmd().Execute(); err != nil {
		klog.Flush()
		os.Exit(1)
	}
}

// newRootCmd wires every command onto a fresh root. Each command binds its
// own flag variables so their defaults do not overwrite one another.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "bhsim",
		Short:        "barnes-hut gravity simulator",
		SilenceUsage: true,
		RunE:         runLive,
	}

	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".bhsim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.IntVar(&numBodies, "bodies", 0, "number of satellite bodies")
	pf.Float64Var(&theta, "theta", 0, "opening angle (0 is exact)")
	pf.Float64Var(&dt, "dt", 0, "sub-step timestep")
	pf.IntVar(&substeps, "substeps", 0, "sub-steps per frame")
	pf.IntVar(&workers, "workers", 0, "force workers (0 uses every CPU)")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	pf.IntVar(&capacity, "capacity", 0, "points per quadtree leaf")
	pf.IntVar(&maxDepth, "max-depth", 0, "quadtree depth cutoff")
	pf.Float64Var(&softening, "softening", 0, "softening length")
	pf.Float64Var(&gravConst, "g", 0, "gravitational constant")
	pf.IntVar(&frameRate, "fps", 0, "frames per second for the live view")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	rootCmd.Flags().BoolVar(&liveGrid, "grid", false, "start with the quadtree grid shown")
	rootCmd.Flags().IntVar(&energyEvery, "energy-every", 10, "frames between energy samples")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		RunE:  runLive,
	}
	liveCmd.Flags().BoolVar(&liveGrid, "grid", false, "start with the quadtree grid shown")
	liveCmd.Flags().IntVar(&energyEvery, "energy-every", 10, "frames between energy samples")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and record the run",
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&runFrames, "frames", 600, "frames to simulate (0 runs until interrupted)")
	runCmd.Flags().IntVar(&energyEvery, "energy-every", 10, "frames between energy samples")
	runCmd.Flags().BoolVar(&runDump, "dump", false, "print the final quadtree")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	accuracyCmd := &cobra.Command{
		Use:   "accuracy",
		Short: "compare barnes-hut forces against direct summation",
		RunE:  accuracySweep,
	}
	accuracyCmd.Flags().Float64SliceVar(&thetas, "thetas", []float64{0, 0.25, 0.5, 0.75, 1, 1.5, 2}, "opening angles to evaluate")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark frame time over body counts",
		RunE:  benchFrames,
	}
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", []int{100, 1000, 5000, 10000}, "body counts")
	benchCmd.Flags().IntVar(&benchFrameN, "frames", 20, "frames per body count")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "step the simulation and export one frame as SVG",
		RunE:  snapshotSVG,
	}
	snapshotCmd.Flags().IntVar(&snapshotFrames, "frames", 1, "frames to simulate before exporting")
	snapshotCmd.Flags().StringVar(&svgPath, "svg", "snapshot.svg", "output path")
	snapshotCmd.Flags().BoolVar(&snapshotGrid, "grid", true, "include quadtree rectangles")
	snapshotCmd.Flags().BoolVar(&braille, "braille", false, "export the terminal canvas instead of exact geometry")
	snapshotCmd.Flags().BoolVar(&snapshotDump, "dump", false, "print the quadtree")

	rootCmd.AddCommand(liveCmd, runCmd, listCmd, plotCmd, accuracyCmd, benchCmd, presetsCmd, snapshotCmd)
	return rootCmd
}
