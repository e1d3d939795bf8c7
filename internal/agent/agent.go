// Package agent defines the collaborator interface for remote agents that
// answer a prompt with streamed text.
package agent

import (
	"context"
	"fmt"
	"strings"
)

// Chunk is one piece of streamed agent output. A chunk with Err set is the
// last one on its channel.
type Chunk struct {
	Text string
	Err  error
}

// Agent answers prompts. The returned channel is closed when the answer is
// complete or ctx is cancelled.
type Agent interface {
	Stream(ctx context.Context, sessionID, prompt string) (<-chan Chunk, error)
}

// RequestStreamer is implemented by agents that accept a structured payload
// in place of a bare prompt.
type RequestStreamer interface {
	StreamRequest(ctx context.Context, sessionID string, payload any) (<-chan Chunk, error)
}

// Collect drains ch and returns the concatenated text.
func Collect(ctx context.Context, ch <-chan Chunk) (string, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return b.String(), ctx.Err()
		case c, ok := <-ch:
			if !ok {
				return b.String(), nil
			}
			if c.Err != nil {
				return b.String(), c.Err
			}
			b.WriteString(c.Text)
		}
	}
}

// Ask streams prompt through a and collects the answer.
func Ask(ctx context.Context, a Agent, sessionID, prompt string) (string, error) {
	ch, err := a.Stream(ctx, sessionID, prompt)
	if err != nil {
		return "", err
	}
	return Collect(ctx, ch)
}

// UnconfiguredError is returned by Unavailable.
type UnconfiguredError struct {
	Env string
}

func (e *UnconfiguredError) Error() string {
	return fmt.Sprintf("%s environment variable not set", e.Env)
}

// Unavailable stands in for an agent whose runtime ARN is not configured.
type Unavailable struct {
	Env string
}

// Stream always fails with *UnconfiguredError.
func (u Unavailable) Stream(context.Context, string, string) (<-chan Chunk, error) {
	return nil, &UnconfiguredError{Env: u.Env}
}

// Static replays fixed chunks. Useful for tests and dry runs.
type Static []string

// Stream emits every element of s in order.
func (s Static) Stream(ctx context.Context, _, _ string) (<-chan Chunk, error) {
	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		for _, text := range s {
			select {
			case <-ctx.Done():
				return
			case ch <- Chunk{Text: text}:
			}
		}
	}()
	return ch, nil
}
