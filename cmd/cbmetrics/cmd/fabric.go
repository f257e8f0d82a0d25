package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/cbmetrics"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/trackmap"
)

var fabricMaps []string

type fabricReport struct {
	Direction string                           `json:"direction"`
	Types     map[string]cbmetrics.Homogeneity `json:"types"`
	Fabric    cbmetrics.FabricHomogeneity      `json:"fabric"`
}

var fabricCmd = &cobra.Command{
	Use:   "fabric <arch-file>",
	Short: "Aggregate pin and wire homogeneity over the whole grid",
	Long: `Compute the metrics of every block type and weight them by the number
of pins each type contributes to the grid.

Block types without a --map get a random track map drawn with --seed.

Examples:
  cbmetrics fabric fabric.arch --map clb=clb.tsv --map io=io.tsv
  cbmetrics fabric fabric.arch --dir receiver --seed 3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFabric,
}

func init() {
	rootCmd.AddCommand(fabricCmd)

	fabricCmd.Flags().StringVarP(&dirName, "dir", "d", "driver", "pin direction (driver, receiver)")
	fabricCmd.Flags().StringArrayVarP(&fabricMaps, "map", "m", nil, "track map of one block type as name=path (repeatable)")
	fabricCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for generated maps (0 = time based)")
	fabricCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
}

func runFabric(cmd *cobra.Command, args []string) error {
	a, err := arch.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load architecture: %w", err)
	}
	if a.Grid == nil {
		return fmt.Errorf("%s has no grid", args[0])
	}
	dir, err := parseDirection(dirName)
	if err != nil {
		return err
	}

	paths := map[string]string{}
	for _, pair := range fabricMaps {
		name, path, ok := strings.Cut(pair, "=")
		if !ok || name == "" || path == "" {
			return fmt.Errorf("invalid --map %q, want name=path", pair)
		}
		if _, err := a.Lookup(name); err != nil {
			return err
		}
		paths[strings.ToLower(name)] = path
	}

	rng := newRand(seed)
	perType := make([]cbmetrics.Homogeneity, len(a.Types))
	for _, bt := range a.Types {
		pins, _ := bt.NumPinsOf(dir)
		if bt.IsEmpty() || pins == 0 {
			continue
		}
		fc := arch.MaxFc(a.FcArray(bt), bt, dir)

		var m *trackmap.Map
		if path, ok := paths[strings.ToLower(bt.Name)]; ok {
			m, err = readMap(path, bt, fc)
		} else if fc > 0 && fc <= a.ChannelWidth {
			if verbose {
				fmt.Printf("Generating random track map for %s\n", bt.Name)
			}
			m, err = trackmap.Generate(bt, dir, fc, a.ChannelWidth, rng)
		} else {
			m = trackmap.ForBlock(bt, max(fc, 1))
		}
		if err != nil {
			return fmt.Errorf("block %s: %w", bt.Name, err)
		}

		cb, err := connBlock(a, bt, dir, m)
		if err != nil {
			return err
		}
		if perType[bt.Index], err = cbmetrics.Compute(cb); err != nil {
			return fmt.Errorf("block %s: %w", bt.Name, err)
		}
	}

	fh, err := cbmetrics.AggregateFabric(perType, a.Types, a.Grid, dir)
	if err != nil {
		return fmt.Errorf("failed to aggregate: %w", err)
	}

	if jsonOutput {
		return printJSON(fabricReport{Direction: dir.String(), Types: typeMetrics(a, perType, fh), Fabric: fh})
	}

	fmt.Printf("%-12s %-10s %-8s %-8s %-8s %-8s %-8s %s\n", "BLOCK", "INSTANCES", "PH", "WH", "HD", "HP", "PD", "PINS")
	for _, bt := range a.Types {
		if fh.Instances[bt.Index] == 0 {
			continue
		}
		h := perType[bt.Index]
		pins, _ := bt.NumPinsOf(dir)
		fmt.Printf("%-12s %-10d %-8.4f %-8.4f %-8.4f %-8.4f %-8.4f %d\n", bt.Name, fh.Instances[bt.Index],
			h.PinHomogeneity, h.WireHomogeneity, h.HammingDistance, h.HammingProximity, h.PinDiversity,
			pins*fh.Instances[bt.Index])
	}
	fmt.Println()
	fmt.Printf("Fabric %s pins:    %d\n", dir, fh.TotalPins)
	fmt.Printf("Fabric pin homogeneity:  %.6f\n", fh.PinHomogeneity)
	fmt.Printf("Fabric wire homogeneity: %.6f\n", fh.WireHomogeneity)
	return nil
}

func typeMetrics(a *arch.Architecture, perType []cbmetrics.Homogeneity, fh cbmetrics.FabricHomogeneity) map[string]cbmetrics.Homogeneity {
	out := map[string]cbmetrics.Homogeneity{}
	for _, bt := range a.Types {
		if fh.Instances[bt.Index] > 0 && !bt.IsEmpty() {
			out[bt.Name] = perType[bt.Index]
		}
	}
	return out
}
