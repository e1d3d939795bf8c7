package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackpilot/cmd/stackpilot/handlers"
)

// Deploy returns the command that submits a template as a new stack.
//
// Optional flags:
//
//	--param, -p: template parameter as KEY=VALUE (repeatable)
//	--yes, -y:   skip the confirmation prompt
//	--wait:      poll until the stack settles
func Deploy() *cobra.Command {
	var dopts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy NAME FILE",
		Short: "Deploy a template as a new stack",
		Long: `Validate a template and submit it as a new stack.

Invalid templates are never submitted. The stack is created with IAM
capabilities and rolls back on failure. Deploying prompts for confirmation
unless --yes is given; non-interactive sessions must pass --yes.

Examples:
  # Deploy and confirm interactively
  stackpilot deploy demo template.yaml

  # Deploy with parameters from CI and wait for the result
  stackpilot deploy demo template.yaml -p Env=prod -p Size=2 --yes --wait`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Deploy(cmd.Context(), options(cmd), args[0], args[1], dopts)
		},
	}

	cmd.Flags().StringArrayVarP(&dopts.Parameters, "param", "p", nil, "Template parameter as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVarP(&dopts.Yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&dopts.Wait, "wait", false, "Wait until the stack settles")
	cmd.Flags().DurationVar(&dopts.Interval, "interval", 0, "Polling interval when waiting (default from STACKPILOT_WATCH_INTERVAL)")
	cmd.Flags().DurationVar(&dopts.Timeout, "timeout", 0, "Give up waiting after this long (default from STACKPILOT_WATCH_TIMEOUT)")
	cmd.Flags().StringVarP(&dopts.Output, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}
