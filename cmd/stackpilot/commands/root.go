// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackpilot/cmd/stackpilot/handlers"
)

// Root returns the root command for the stackpilot CLI.
//
// The root command carries the flags every subcommand shares and organizes
// the command hierarchy.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stackpilot",
		Short:         "Validate, deploy and watch infrastructure stacks with agent assistance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default: stackpilot.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")

	// Stack lifecycle
	cmd.AddCommand(Validate())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Status())
	cmd.AddCommand(Events())
	cmd.AddCommand(Wait())
	cmd.AddCommand(Watch())

	// Agents
	cmd.AddCommand(Serve())
	cmd.AddCommand(Invoke())
	cmd.AddCommand(Runtimes())

	// Utility
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// options reads the shared flags. Persistent flags are merged into every
// subcommand's flag set once parsing has happened.
func options(cmd *cobra.Command) handlers.Options {
	configPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	return handlers.Options{ConfigPath: configPath, LogLevel: logLevel}
}
