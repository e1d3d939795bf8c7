package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/imamik/stackpilot/cmd/stackpilot/handlers"
)

// Invoke returns the command that sends a prompt to the orchestrator runtime.
func Invoke() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "invoke PROMPT...",
		Short: "Send a prompt to the deployed orchestrator agent",
		Long: `Send a prompt to the orchestrator runtime and stream its answer.

Examples:
  stackpilot invoke "create an S3 bucket with versioning"
  stackpilot invoke --session $SESSION "what is the status of demo?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Invoke(cmd.Context(), options(cmd), strings.Join(args, " "), sessionID)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to continue (default: a new one)")

	return cmd
}
