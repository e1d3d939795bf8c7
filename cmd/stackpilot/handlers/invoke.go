package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/stackpilot/internal/agent"
	"github.com/imamik/stackpilot/internal/config"
	"github.com/imamik/stackpilot/internal/util/naming"
)

// Invoke sends a prompt to the orchestrator runtime and streams the answer
// to stdout.
func Invoke(ctx context.Context, opts Options, prompt, sessionID string) error {
	e, err := setup(opts)
	if err != nil {
		return err
	}

	arn := e.cfg.Agents.OrchestratorARN
	if arn == "" {
		return &agent.UnconfiguredError{Env: config.EnvOrchestratorARN}
	}
	if sessionID == "" {
		sessionID = naming.SessionID()
	}

	rc, err := newRuntimeClient(ctx, e.cfg, e.log)
	if err != nil {
		return fmt.Errorf("failed to create agent runtime client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeouts.AgentInvoke)
	defer cancel()

	e.log.V(1).Info("invoking orchestrator", "runtime", naming.RuntimeName(arn), "session", sessionID)

	ch, err := rc.Agent(arn).Stream(ctx, sessionID, prompt)
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", naming.RuntimeName(arn), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-ch:
			if !ok {
				fmt.Println()
				return nil
			}
			if c.Err != nil {
				fmt.Println()
				return c.Err
			}
			fmt.Print(c.Text)
		}
	}
}
