package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stackpilot/internal/agent"
	"github.com/imamik/stackpilot/internal/config"
	"github.com/imamik/stackpilot/internal/stack"
)

func TestInvoke_RequiresOrchestrator(t *testing.T) {
	useFakes(t, &stack.MockBackend{}, &fakeRuntimeClient{})

	err := Invoke(context.Background(), Options{}, "hello", "")

	var unconfigured *agent.UnconfiguredError
	require.True(t, errors.As(err, &unconfigured))
	assert.Equal(t, config.EnvOrchestratorARN, unconfigured.Env)
}

func TestInvoke_StreamsAnswer(t *testing.T) {
	rc := &fakeRuntimeClient{}
	rc.agents = map[string]agent.Agent{
		orchestratorARN: recordingAgent{client: rc, chunks: []string{"Stack ", "demo ", "is ready."}},
	}
	useFakes(t, &stack.MockBackend{}, rc, allRuntimes)

	var err error
	output := captureOutput(func() {
		err = Invoke(context.Background(), Options{}, "status of demo", "session-0000000000000000000000000001")
	})

	require.NoError(t, err)
	assert.Equal(t, "Stack demo is ready.\n", output)
	assert.Equal(t, []string{"session-0000000000000000000000000001:status of demo"}, rc.prompts)
}

func TestInvoke_GeneratesSessionID(t *testing.T) {
	rc := &fakeRuntimeClient{}
	rc.agents = map[string]agent.Agent{
		orchestratorARN: recordingAgent{client: rc, chunks: []string{"ok"}},
	}
	useFakes(t, &stack.MockBackend{}, rc, allRuntimes)

	var err error
	captureOutput(func() {
		err = Invoke(context.Background(), Options{}, "hi", "")
	})

	require.NoError(t, err)
	require.Len(t, rc.prompts, 1)
	assert.Len(t, rc.prompts[0], 36+len(":hi"))
}
