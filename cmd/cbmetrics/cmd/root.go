package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cbmetrics",
	Short: "FPGA connection block metrics and tuning",
	Long: `Measure how connection blocks wire logic block pins onto routing
tracks, and tune track maps toward a target metric value.

Examples:
  cbmetrics arch fabric.arch                                  # Summarise an architecture
  cbmetrics generate fabric.arch --block clb --out clb.tsv    # Random track map
  cbmetrics metrics fabric.arch --block clb --map clb.tsv     # Five metrics of one block
  cbmetrics tune hamming fabric.arch --map clb.tsv --metric hd --target 0.1 --out tuned.tsv`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
