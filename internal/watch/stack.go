package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/stackpilot/internal/stack"
)

const (
	// DefaultInterval is the time between status reads.
	DefaultInterval = 5 * time.Second
	// DefaultTimeout bounds how long Stack waits.
	DefaultTimeout = 30 * time.Minute
)

// ErrTimeout is wrapped by TimeoutError.
var ErrTimeout = errors.New("timed out waiting for stack")

// TimeoutError reports that a deployment did not settle in time. Last is the
// most recent snapshot read, if any.
type TimeoutError struct {
	Name  string
	After time.Duration
	Last  *stack.Snapshot
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("timeout after %s waiting for stack %s (last state %s)", e.After, e.Name, e.Last.State)
	}
	return fmt.Sprintf("timeout after %s waiting for stack %s", e.After, e.Name)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// StatusReader reads deployment snapshots.
type StatusReader interface {
	GetStatus(ctx context.Context, name string) (*stack.Snapshot, error)
}

// Options controls Stack.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	// OnUpdate is called with every snapshot read, including the last.
	OnUpdate func(*stack.Snapshot)
}

// Stack polls name until its state is terminal and returns the final
// snapshot. Reads that fail before reaching the backend are retried on the
// next tick; any other error ends the wait.
func Stack(ctx context.Context, r StatusReader, name string, opts Options) (*stack.Snapshot, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *stack.Snapshot
	for {
		snap, err := r.GetStatus(ctx, name)
		switch {
		case err == nil:
			last = snap
			if opts.OnUpdate != nil {
				opts.OnUpdate(snap)
			}
			if snap.State.IsTerminal() {
				return snap, nil
			}
		case ctx.Err() != nil:
		case !stack.IsRetryable(err):
			return last, err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, &TimeoutError{Name: name, After: timeout, Last: last}
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
