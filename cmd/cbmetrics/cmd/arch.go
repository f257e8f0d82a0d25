package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/arch"
	"github.com/shenpeifu/vtr-verilog-to-routing-sub001/pkg/cbmetrics"
)

var archCmd = &cobra.Command{
	Use:   "arch <file>",
	Short: "Summarise an architecture description",
	Long: `Parse an architecture description and list its block types, their
pin counts, Fc values and the number of instances placed on the grid.

Examples:
  cbmetrics arch fabric.arch
  cbmetrics arch fabric.arch --verbose    # also list pin locations`,
	Args: cobra.ExactArgs(1),
	RunE: runArch,
}

func init() {
	rootCmd.AddCommand(archCmd)
}

func runArch(cmd *cobra.Command, args []string) error {
	a, err := arch.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load architecture: %w", err)
	}

	fmt.Printf("Architecture: %s\n", args[0])
	fmt.Printf("Channel width: %d\n", a.ChannelWidth)
	for _, seg := range a.Segments {
		fmt.Printf("Segment %s: length %d, freq %g\n", seg.Name, seg.Length, seg.Frequency)
	}
	if nwt := a.NumWireTypes(); nwt > 0 {
		fmt.Printf("Wire types: %d\n", nwt)
	} else {
		fmt.Println("Wire types: undefined (metrics need a single segment type)")
	}

	var counts []int
	if a.Grid != nil {
		fmt.Printf("Grid: %d x %d\n", a.Grid.Width, a.Grid.Height)
		counts, err = cbmetrics.Census(a.Grid, len(a.Types))
		if err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Printf("%-4s %-12s %-6s %-5s %-8s %-9s %-9s %-11s %s\n",
		"IDX", "NAME", "SIZE", "PINS", "DRIVERS", "RECEIVERS", "FC(DRV)", "FC(RCV)", "INSTANCES")
	for _, bt := range a.Types {
		fc := a.FcArray(bt)
		instances := "-"
		if counts != nil {
			instances = fmt.Sprint(counts[bt.Index])
		}
		fmt.Printf("%-4d %-12s %-6s %-5d %-8d %-9d %-9s %-11s %s\n",
			bt.Index, bt.Name, fmt.Sprintf("%dx%d", bt.Width, bt.Height), bt.NumPins,
			bt.NumDrivers, bt.NumReceivers,
			fcLabel(fc, bt, arch.Driver), fcLabel(fc, bt, arch.Receiver), instances)

		if verbose {
			printPinLocs(bt)
		}
	}
	return nil
}

// fcLabel shows the Fc of a direction, flagging mixed values.
func fcLabel(fc []int, bt *arch.BlockType, dir arch.PinType) string {
	n := arch.MaxFc(fc, bt, dir)
	if n == 0 {
		return "-"
	}
	if arch.CheckUniformFc(fc, bt, dir) != nil {
		return fmt.Sprintf("%d (mixed)", n)
	}
	return fmt.Sprint(n)
}

func printPinLocs(bt *arch.BlockType) {
	for pin := 0; pin < bt.NumPins; pin++ {
		if bt.PinTypeOf(pin) == arch.Open {
			continue
		}
		for _, loc := range bt.PinSides(pin) {
			fmt.Printf("       pin %-3d %-8s cell %d,%d %s\n", pin, bt.PinTypeOf(pin), loc[0], loc[1], arch.Side(loc[2]))
		}
	}
}
