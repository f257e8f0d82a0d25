package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/cbmetrics"
)

var (
	// Flags for the tune commands
	tuneMetric         string
	tuneTarget         float64
	tuneTolerance      float64
	tunePinTolerance   float64
	tuneGuard          string
	tuneGuardTolerance float64
	tuneMove           string
	tunePreserve       bool
	tuneMaxIterations  int
	tuneHammingStall   int
	tunePinStall       int
	tuneTimeout        int // seconds
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Tune a track map toward a target metric value",
	Long: `Run a randomised local search that rewrites a track map until the chosen
metric is within tolerance of the target.

  hamming  anneals hamming distance, hamming proximity or wire homogeneity
           while holding pin diversity
  pin      greedily moves pin diversity or pin homogeneity while holding a
           hamming-family guard metric`,
}

var tuneHammingCmd = &cobra.Command{
	Use:   "hamming <arch-file>",
	Short: "Anneal a hamming-family metric",
	Long: `Anneal hamming distance (hd), hamming proximity (hp) or wire homogeneity
(wh) toward --target. Moves that change pin diversity by more than --pin-tol
are rejected.

Examples:
  cbmetrics tune hamming fabric.arch --map clb.tsv --metric hd --target 0.1 --tol 0.005 --out tuned.tsv
  cbmetrics tune hamming fabric.arch --map clb.tsv --metric wh --target 0.2 --preserve-tracks --seed 1 -o tuned.sexp`,
	Args: cobra.ExactArgs(1),
	RunE: runTuneHamming,
}

var tunePinCmd = &cobra.Command{
	Use:   "pin <arch-file>",
	Short: "Greedily tune pin diversity or pin homogeneity",
	Long: `Move pin diversity (pd) or pin homogeneity (ph) toward --target. Moves that
change the guard metric by more than --guard-tol are rejected.

Examples:
  cbmetrics tune pin fabric.arch --map clb.tsv --metric pd --target 0.9 --out tuned.tsv
  cbmetrics tune pin fabric.arch --map clb.tsv --metric ph --target 0 --move swap --guard hd --guard-tol 0.01 -o tuned.tsv`,
	Args: cobra.ExactArgs(1),
	RunE: runTunePin,
}

func init() {
	rootCmd.AddCommand(tuneCmd)
	tuneCmd.AddCommand(tuneHammingCmd, tunePinCmd)

	for _, c := range []*cobra.Command{tuneHammingCmd, tunePinCmd} {
		c.Flags().StringVarP(&blockName, "block", "b", arch.CoreLogicName, "block type name")
		c.Flags().StringVarP(&dirName, "dir", "d", "driver", "pin direction (driver, receiver)")
		c.Flags().StringVarP(&mapPath, "map", "m", "", "input track map (.tsv or .sexp)")
		c.Flags().StringVarP(&outPath, "out", "o", "", "output track map (.tsv or .sexp)")
		c.Flags().StringVar(&tuneMetric, "metric", "", "metric to drive")
		c.Flags().Float64Var(&tuneTarget, "target", 0, "target metric value")
		c.Flags().Float64Var(&tuneTolerance, "tol", 0.01, "accepted distance from the target")
		c.Flags().IntVar(&tuneMaxIterations, "max-iter", 100000, "candidate moves evaluated at most")
		c.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = time based)")
		c.Flags().IntVar(&tuneTimeout, "timeout", 0, "timeout in seconds (0 = no timeout)")
		c.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")

		c.MarkFlagRequired("map")
		c.MarkFlagRequired("metric")
		c.MarkFlagRequired("target")
	}

	tuneHammingCmd.Flags().Float64Var(&tunePinTolerance, "pin-tol", 0.05, "allowed pin diversity drift")
	tuneHammingCmd.Flags().BoolVar(&tunePreserve, "preserve-tracks", false, "never remove a track's last connection on its channel")
	tuneHammingCmd.Flags().IntVar(&tuneHammingStall, "stagnation", 10000, "consecutive rejections before giving up (0 = never)")

	tunePinCmd.Flags().StringVar(&tuneGuard, "guard", "wh", "hamming-family metric held while tuning")
	tunePinCmd.Flags().Float64Var(&tuneGuardTolerance, "guard-tol", 0.05, "allowed guard metric drift")
	tunePinCmd.Flags().StringVar(&tuneMove, "move", "reassign", "move kind (reassign, swap)")
	tunePinCmd.Flags().IntVar(&tunePinStall, "stagnation", 0, "consecutive rejections before giving up (0 = never)")
}

// tuneSetup loads everything a tuner needs.
func tuneSetup(path string, stagnation int) (cbmetrics.ConnBlock, cbmetrics.Metric, *cbmetrics.Options, error) {
	a, bt, dir, err := loadBlock(path)
	if err != nil {
		return cbmetrics.ConnBlock{}, 0, nil, err
	}
	metric, err := cbmetrics.ParseMetric(tuneMetric)
	if err != nil {
		return cbmetrics.ConnBlock{}, 0, nil, err
	}
	m, err := readMap(mapPath, bt, arch.MaxFc(a.FcArray(bt), bt, dir))
	if err != nil {
		return cbmetrics.ConnBlock{}, 0, nil, err
	}
	cb, err := connBlock(a, bt, dir, m)
	if err != nil {
		return cbmetrics.ConnBlock{}, 0, nil, err
	}

	opts := cbmetrics.DefaultHammingOptions()
	opts.MaxIterations = tuneMaxIterations
	opts.StagnationLimit = stagnation
	opts.Rand = newRand(seed)
	if verbose {
		opts.Trace = os.Stdout
		opts.OnProgress = displayProgress
	}
	return cb, metric, opts, nil
}

func tuneContext() (context.Context, context.CancelFunc) {
	if tuneTimeout > 0 {
		return context.WithTimeout(context.Background(), time.Duration(tuneTimeout)*time.Second)
	}
	return context.WithCancel(context.Background())
}

func runTuneHamming(cmd *cobra.Command, args []string) error {
	cb, metric, opts, err := tuneSetup(args[0], tuneHammingStall)
	if err != nil {
		return err
	}
	opts.PreserveTracks = tunePreserve

	ctx, cancel := tuneContext()
	defer cancel()

	start := time.Now()
	res, err := cbmetrics.TuneHamming(ctx, cb, cbmetrics.HammingRequest{
		Metric:       metric,
		Target:       tuneTarget,
		Tolerance:    tuneTolerance,
		PinTolerance: tunePinTolerance,
	}, opts)
	if err != nil {
		return fmt.Errorf("tuning failed: %w", err)
	}
	return finishTune(cb, metric, res, time.Since(start))
}

func runTunePin(cmd *cobra.Command, args []string) error {
	cb, metric, opts, err := tuneSetup(args[0], tunePinStall)
	if err != nil {
		return err
	}
	guard, err := cbmetrics.ParseMetric(tuneGuard)
	if err != nil {
		return err
	}
	if opts.Move, err = cbmetrics.ParseMove(tuneMove); err != nil {
		return err
	}

	ctx, cancel := tuneContext()
	defer cancel()

	start := time.Now()
	res, err := cbmetrics.TunePinMetric(ctx, cb, cbmetrics.PinRequest{
		Metric:         metric,
		Target:         tuneTarget,
		Tolerance:      tuneTolerance,
		Guard:          guard,
		GuardTolerance: tuneGuardTolerance,
	}, opts)
	if err != nil {
		return fmt.Errorf("tuning failed: %w", err)
	}
	return finishTune(cb, metric, res, time.Since(start))
}

// finishTune reports the result and saves the tuned map.
func finishTune(cb cbmetrics.ConnBlock, metric cbmetrics.Metric, res *cbmetrics.Result, elapsed time.Duration) error {
	if outPath != "" {
		if err := writeMap(outPath, cb.Tracks, cb.Type, cb.Direction); err != nil {
			return err
		}
	}
	if jsonOutput {
		return printJSON(res)
	}

	status := "✓ Target reached"
	if !res.Success {
		status = "✗ Target not reached"
	}
	fmt.Println(status)
	fmt.Printf("%-20s %.6f -> %.6f (target %g ± %g)\n", metric.String()+":",
		res.Initial.Get(metric), res.Final.Get(metric), tuneTarget, tuneTolerance)
	fmt.Printf("Iterations:          %d\n", res.Iterations)
	fmt.Printf("Accepted moves:      %d\n", res.Moves)
	fmt.Printf("Time elapsed:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()
	printHomogeneity(res.Final)

	if outPath != "" {
		fmt.Printf("\n✓ Track map saved to: %s\n", outPath)
	} else {
		fmt.Println("\n⚠ No output file specified. Use --out to save the tuned track map.")
	}
	return nil
}

// displayProgress draws a progress bar for the search phase.
func displayProgress(p cbmetrics.Progress) {
	switch p.Phase {
	case "init":
		fmt.Printf("Starting search: %s %.6f, distance %.6f\n", tuneMetric, p.Metric, p.Diff)
	case "done":
		fmt.Printf("\r%-80s\r", "")
		fmt.Printf("Search finished after %d iterations, %d moves\n", p.Iteration, p.Moves)
	default:
		percent := 0
		if p.Max > 0 {
			percent = p.Iteration * 100 / p.Max
		}
		barWidth := 40
		filled := min(percent*barWidth/100, barWidth)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		fmt.Printf("\r[%s] %3d%% | moves %d | distance %.6f", bar, percent, p.Moves, p.Diff)
	}
}
