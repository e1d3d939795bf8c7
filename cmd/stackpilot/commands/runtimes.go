package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackpilot/cmd/stackpilot/handlers"
)

// Runtimes returns the command group for hosted agent runtimes.
func Runtimes() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runtimes",
		Short: "Manage hosted agent runtimes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tag",
		Short: "Apply retention tags to every configured runtime",
		Long: `Apply the retention tags that keep agent runtimes out of automated
cleanup. Runtimes that do not exist yet are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RuntimesTag(cmd.Context(), options(cmd))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Show the tags of every configured runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RuntimesVerify(cmd.Context(), options(cmd))
		},
	})

	return cmd
}
