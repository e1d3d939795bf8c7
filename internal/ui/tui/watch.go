package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/stackpilot/internal/stack"
)

// watchEventLimit is how many events are fetched per refresh.
const watchEventLimit = 10

// Source reads stack state for the dashboard.
type Source interface {
	GetStatus(ctx context.Context, name string) (*stack.Snapshot, error)
	GetEvents(ctx context.Context, name string, limit int) ([]stack.Event, error)
}

// RunWatchTUI follows a stack in a Bubble Tea dashboard until it reaches a
// terminal state, the user quits, or ctx is cancelled.
func RunWatchTUI(ctx context.Context, src Source, stackName, region string, interval time.Duration) error {
	m := NewWatchModel(stackName, region)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Poll status in background
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Fetch immediately with a short timeout to avoid hanging
		fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		p.Send(fetchStatus(fetchCtx, src, stackName))
		cancel()

		for {
			select {
			case <-ctx.Done():
				p.Send(ErrMsg{Err: ctx.Err()})
				return
			case <-ticker.C:
				p.Send(fetchStatus(ctx, src, stackName))
			}
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Err != nil {
		return fm.Err
	}
	if fm.State.IsFailed() {
		return fmt.Errorf("stack %s ended in %s", stackName, fm.State)
	}
	return nil
}

func fetchStatus(ctx context.Context, src Source, stackName string) StatusMsg {
	snap, err := src.GetStatus(ctx, stackName)
	if err != nil {
		if errors.Is(err, stack.ErrNotFound) {
			return StatusMsg{NotFound: true}
		}
		return StatusMsg{FetchErr: err.Error()}
	}

	// Events are best effort; a failed read keeps the previous list.
	events, err := src.GetEvents(ctx, stackName, watchEventLimit)
	if err != nil {
		events = nil
	}

	return StatusMsg{Snapshot: snap, Events: events}
}

// RenderOnce renders a single dashboard frame (non-interactive mode).
func RenderOnce(snap *stack.Snapshot, events []stack.Event, region string) string {
	m := NewWatchModel(snap.Name, region)
	m.updateStatus(StatusMsg{Snapshot: snap, Events: events})
	m.Done = snap.State.IsTerminal()
	return renderView(m)
}
