package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/surgehttp/surge/internal/benchmark"
	"github.com/surgehttp/surge/internal/runs"
)

var (
	runsStorePath string
	runsLimit     int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored benchmark runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openRunsService()
		if err != nil {
			return err
		}
		defer closeStore()

		summaries, err := service.List(runsLimit)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored runs.")
			return nil
		}

		for _, summary := range summaries {
			created := time.UnixMilli(summary.CreatedAt).Format(time.RFC3339)
			fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-10s %s\n", summary.RunID, summary.Status, created)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the full stored record of a run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openRunsService()
		if err != nil {
			return err
		}
		defer closeStore()

		detail, err := service.Get(args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(detail, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openRunsService()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := service.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func openRunsService() (*runs.Service, func(), error) {
	if runsStorePath == "" {
		return nil, nil, fmt.Errorf("--store is required for runs commands")
	}
	runStore, err := openStore(runsStorePath)
	if err != nil {
		return nil, nil, err
	}
	service := runs.NewService(runStore, benchmark.NewRegistry())
	return service, func() { runStore.Close() }, nil
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsStorePath, "store", "", "Path to the SQLite run store")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}
