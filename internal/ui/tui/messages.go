// Package tui provides a Bubble Tea-based terminal UI for following stack
// deployments.
package tui

import "github.com/imamik/stackpilot/internal/stack"

// StatusMsg carries the latest snapshot and recent events of a stack.
type StatusMsg struct {
	Snapshot *stack.Snapshot
	Events   []stack.Event
	NotFound bool
	FetchErr string
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the operation is complete.
type DoneMsg struct{}
