package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/stackpilot/cmd/stackpilot/handlers"
	"github.com/imamik/stackpilot/internal/stack"
)

// Status returns the command that prints a stack snapshot.
func Status() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status NAME",
		Short: "Show the state, resources and outputs of a stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Status(cmd.Context(), options(cmd), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}

// Events returns the command that prints recent stack events.
func Events() *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "events NAME",
		Short: "Show the most recent stack events, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Events(cmd.Context(), options(cmd), args[0], limit, output)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", stack.DefaultEventLimit, "Maximum number of events")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")

	return cmd
}

// Wait returns the command that blocks until a stack settles.
func Wait() *cobra.Command {
	var interval, timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait NAME",
		Short: "Wait until a stack reaches a terminal state",
		Long: `Poll a stack until it reaches a terminal state.

Exits non-zero when the stack ends failed or rolled back, or when the
timeout expires first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Wait(cmd.Context(), options(cmd), args[0], interval, timeout)
		},
	}

	durationFlags(cmd, &interval, &timeout)

	return cmd
}

// Watch returns the command that follows a stack in a live dashboard.
func Watch() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch NAME",
		Short: "Follow a stack in a live dashboard",
		Long: `Follow a stack deployment with live resource progress and events.

When stdout is not a terminal, state changes are printed line by line
instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Watch(cmd.Context(), options(cmd), args[0], interval)
		},
	}

	durationFlags(cmd, &interval, nil)

	return cmd
}

// durationFlags registers the shared polling flags.
func durationFlags(cmd *cobra.Command, interval, timeout *time.Duration) {
	cmd.Flags().DurationVar(interval, "interval", 0, "Polling interval (default from STACKPILOT_WATCH_INTERVAL)")
	if timeout != nil {
		cmd.Flags().DurationVar(timeout, "timeout", 0, "Give up after this long (default from STACKPILOT_WATCH_TIMEOUT)")
	}
}
