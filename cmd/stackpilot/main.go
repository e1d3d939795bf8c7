// Package main is the entry point for the stackpilot CLI.
//
// stackpilot validates infrastructure templates, deploys them as stacks,
// follows their progress, and runs the agent server that routes natural
// language requests to template generation and stack operations.
//
// Commands: validate, deploy, status, events, wait, watch, serve, invoke,
// runtimes.
//
// For detailed usage information, run:
//
//	stackpilot --help
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/stackpilot/cmd/stackpilot/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
