// Package cli wires the benchmark engine into cobra commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/surgehttp/surge/internal/benchmark"
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "surge",
	Short:   "HTTP benchmark runner with streaming percentile metrics",
	Version: benchmark.Version,
	Long: `Surge drives a configurable HTTP load test against a single target
endpoint with a fixed pool of concurrent workers, classifies every request
outcome, and reduces the results into percentile latencies, a latency
histogram, a per-second time series, and top error samples.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(runsCmd)
	RootCmd.AddCommand(fingerprintCmd)
}
