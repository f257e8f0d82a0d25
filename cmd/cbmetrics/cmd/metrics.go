package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/cbmetrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <arch-file>",
	Short: "Compute the connection block metrics of one block type",
	Long: `Read a track map and print pin homogeneity, wire homogeneity, hamming
distance, hamming proximity and pin diversity for the chosen block type and
pin direction.

Examples:
  cbmetrics metrics fabric.arch --block clb --map clb.tsv
  cbmetrics metrics fabric.arch --block clb --dir receiver --map in.sexp --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVarP(&blockName, "block", "b", arch.CoreLogicName, "block type name")
	metricsCmd.Flags().StringVarP(&dirName, "dir", "d", "driver", "pin direction (driver, receiver)")
	metricsCmd.Flags().StringVarP(&mapPath, "map", "m", "", "track map (.tsv or .sexp)")
	metricsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the metrics as JSON")

	metricsCmd.MarkFlagRequired("map")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	a, bt, dir, err := loadBlock(args[0])
	if err != nil {
		return err
	}
	m, err := readMap(mapPath, bt, arch.MaxFc(a.FcArray(bt), bt, dir))
	if err != nil {
		return err
	}
	cb, err := connBlock(a, bt, dir, m)
	if err != nil {
		return err
	}

	h, err := cbmetrics.Compute(cb)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	if jsonOutput {
		return printJSON(h)
	}
	pins, _ := bt.NumPinsOf(dir)
	fmt.Printf("Block:               %s (%d %s pins, Fc %d)\n", bt.Name, pins, dir, arch.MaxFc(cb.Fc, bt, dir))
	printHomogeneity(h)
	return nil
}
