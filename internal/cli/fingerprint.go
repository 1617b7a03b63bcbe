package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surgehttp/surge/internal/benchmark"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print this host's environment fingerprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(benchmark.CollectEnvironmentFingerprint(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}
