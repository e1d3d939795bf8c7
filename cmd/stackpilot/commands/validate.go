package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackpilot/cmd/stackpilot/handlers"
)

// Validate returns the command that checks a template file.
//
// Local validation never touches the network. --remote additionally asks the
// provisioning backend, and --watch re-validates on every save.
func Validate() *cobra.Command {
	var (
		remote bool
		watch  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a template file",
		Long: `Validate an infrastructure template.

The template must be a YAML or JSON mapping with a non-empty Resources
section. Intrinsic function tags such as !Ref and !Sub are accepted.

Examples:
  # Check the template structure locally
  stackpilot validate template.yaml

  # Also ask the provisioning backend
  stackpilot validate template.yaml --remote

  # Re-validate whenever the file is saved
  stackpilot validate template.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Validate(cmd.Context(), options(cmd), args[0], remote, watch, output)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also validate against the provisioning backend")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-validate when the file changes")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}
