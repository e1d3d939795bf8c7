package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackpilot/cmd/stackpilot/handlers"
)

// Serve returns the command that runs the agent server.
//
// Environment variables:
//
//	STACKPILOT_ROLE: orchestrator, onboarding or provisioning
//	ONBOARDING_AGENT_ARN, PROVISIONING_AGENT_ARN: collaborator runtimes
func Serve() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent server",
		Long: `Run the agent server in the configured role.

The server exposes the agent runtime contract:
  GET  /ping         health check
  POST /invocations  streamed answer as server-sent events
  GET  /ws           streamed answer over a websocket
  GET  /metrics      Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), options(cmd), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}
