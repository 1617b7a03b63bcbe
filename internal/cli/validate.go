package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surgehttp/surge/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <spec-file>",
	Short: "Validate a benchmark spec without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := config.LoadSpec(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Spec is valid: %s %s (%d workers)\n",
			spec.Target.RequestSnapshot.Method, spec.Target.RequestSnapshot.URL,
			spec.Load.Concurrency)
		return nil
	},
}
