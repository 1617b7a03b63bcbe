package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/surgehttp/surge/internal/benchmark"
	"github.com/surgehttp/surge/internal/config"
	"github.com/surgehttp/surge/internal/output"
	"github.com/surgehttp/surge/internal/runs"
	"github.com/surgehttp/surge/internal/store"
)

var (
	runOutputFormat string
	runStorePath    string
	runConcurrency  int
	runExportPath   string
)

var runCmd = &cobra.Command{
	Use:   "run <spec-file>",
	Short: "Execute a benchmark spec against its target",
	Long: `Run loads a benchmark spec (JSON or YAML), executes the configured
warmup and measurement phases, and prints the aggregated metrics.

Press Ctrl-C to cancel a run in flight; a cancelled run still reports the
metrics collected up to that point.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := config.LoadSpec(args[0])
		if err != nil {
			return err
		}
		if runConcurrency > 0 {
			spec.Load.Concurrency = runConcurrency
		}

		runStore, err := openStore(runStorePath)
		if err != nil {
			return err
		}
		defer runStore.Close()

		service := runs.NewService(runStore, benchmark.NewRegistry())

		runID, err := service.Prepare(spec)
		if err != nil {
			return err
		}

		// Ctrl-C broadcasts cancellation to the run's workers instead of
		// killing the process; a second Ctrl-C terminates as usual.
		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(interrupts)
		go func() {
			if _, ok := <-interrupts; ok {
				service.Cancel(runID)
				signal.Stop(interrupts)
			}
		}()

		result, err := service.Execute(runID, spec)
		if err != nil {
			return err
		}

		renderer := output.NewRenderer(cmd.OutOrStdout())
		if output.Format(runOutputFormat) == output.FormatJSON {
			if err := renderer.WriteJSON(result); err != nil {
				return err
			}
		} else {
			if err := renderer.WriteConsole(runID, result); err != nil {
				return err
			}
		}

		if runExportPath != "" {
			payload, err := service.Export(runID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(runExportPath, []byte(payload.Content), 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nExported run to %s\n", runExportPath)
		}

		return nil
	},
}

func openStore(path string) (store.RunStore, error) {
	if path == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLiteStore(path)
}

func init() {
	runCmd.Flags().StringVarP(&runOutputFormat, "output", "o", "console", "Output format (console, json)")
	runCmd.Flags().StringVar(&runStorePath, "store", "", "Path to a SQLite run store (default: in-memory)")
	runCmd.Flags().IntVarP(&runConcurrency, "concurrency", "c", 0, "Override the spec's concurrency")
	runCmd.Flags().StringVar(&runExportPath, "export", "", "Write the full run record to this file as JSON")
}
