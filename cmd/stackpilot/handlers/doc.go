// Package handlers implements the stackpilot CLI commands.
//
// Handlers are framework-agnostic: they take plain arguments, build their
// collaborators through package-level factory variables, and print to
// stdout. Tests replace the factories.
package handlers
