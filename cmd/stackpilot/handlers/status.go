package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/ui/tui"
	"github.com/imamik/stackpilot/internal/watch"
)

// Status prints the current snapshot of a stack.
func Status(ctx context.Context, opts Options, name, output string) error {
	if err := validateOutput(output); err != nil {
		return err
	}

	e, err := setup(opts)
	if err != nil {
		return err
	}
	prov, err := e.provisioner(ctx)
	if err != nil {
		return err
	}

	callCtx, cancel := e.backendContext(ctx)
	defer cancel()

	snap, err := prov.GetStatus(callCtx, name)
	if err != nil {
		return err
	}

	printed, err := printStructured(output, snap)
	if err != nil {
		return err
	}
	if !printed {
		fmt.Print(renderSnapshot(snap))
	}
	return nil
}

// Events prints the most recent lifecycle events of a stack, newest first.
func Events(ctx context.Context, opts Options, name string, limit int, output string) error {
	if err := validateOutput(output); err != nil {
		return err
	}

	e, err := setup(opts)
	if err != nil {
		return err
	}
	prov, err := e.provisioner(ctx)
	if err != nil {
		return err
	}

	callCtx, cancel := e.backendContext(ctx)
	defer cancel()

	events, err := prov.GetEvents(callCtx, name, limit)
	if err != nil {
		return err
	}

	printed, err := printStructured(output, events)
	if err != nil {
		return err
	}
	if !printed {
		fmt.Print(renderEvents(events))
	}
	return nil
}

// Wait polls a stack until it settles. A failed or rolled back stack is an
// error.
func Wait(ctx context.Context, opts Options, name string, interval, timeout time.Duration) error {
	e, err := setup(opts)
	if err != nil {
		return err
	}
	prov, err := e.provisioner(ctx)
	if err != nil {
		return err
	}
	return waitForStack(ctx, e, prov, name, interval, timeout)
}

// Watch follows a stack in the interactive dashboard, or prints state
// changes when stdout is not a terminal.
func Watch(ctx context.Context, opts Options, name string, interval time.Duration) error {
	e, err := setup(opts)
	if err != nil {
		return err
	}
	prov, err := e.provisioner(ctx)
	if err != nil {
		return err
	}

	if interval <= 0 {
		interval = e.timeouts.WatchInterval
	}
	if isInteractiveTTY() {
		return runWatchTUI(ctx, prov, name, e.cfg.Region, interval)
	}
	waitErr := waitForStack(ctx, e, prov, name, interval, 0)
	printFinalFrame(ctx, e, prov, name)
	return waitErr
}

// printFinalFrame prints one dashboard frame of the settled stack. Read
// errors are ignored; the wait result already carries the outcome.
func printFinalFrame(ctx context.Context, e *env, src tui.Source, name string) {
	callCtx, cancel := e.backendContext(ctx)
	defer cancel()

	snap, err := src.GetStatus(callCtx, name)
	if err != nil {
		return
	}
	events, _ := src.GetEvents(callCtx, name, stack.DefaultEventLimit)
	fmt.Print("\n" + tui.RenderOnce(snap, events, e.cfg.Region) + "\n")
}

func waitForStack(ctx context.Context, e *env, reader watch.StatusReader, name string, interval, timeout time.Duration) error {
	if interval <= 0 {
		interval = e.timeouts.WatchInterval
	}
	if timeout <= 0 {
		timeout = e.timeouts.WatchTimeout
	}

	fmt.Printf("Waiting for stack %s (timeout %s)...\n", name, timeout)

	var last stack.State
	snap, err := watch.Stack(ctx, reader, name, watch.Options{
		Interval: interval,
		Timeout:  timeout,
		OnUpdate: func(s *stack.Snapshot) {
			if s.State == last {
				return
			}
			last = s.State
			fmt.Printf("  %s %s\n", time.Now().Format(time.TimeOnly), tui.StateStyle(s.State).Render(string(s.State)))
		},
	})
	if err != nil {
		return err
	}

	if snap.State.IsFailed() {
		if snap.Reason != "" {
			return fmt.Errorf("stack %s ended in %s: %s", name, snap.State, snap.Reason)
		}
		return fmt.Errorf("stack %s ended in %s", name, snap.State)
	}
	fmt.Printf("Stack %s is %s\n", name, snap.State)
	return nil
}
