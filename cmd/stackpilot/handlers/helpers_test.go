package handlers

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/stackpilot/internal/agent"
	"github.com/imamik/stackpilot/internal/config"
	"github.com/imamik/stackpilot/internal/stack"
)

const validTemplate = `AWSTemplateFormatVersion: '2010-09-09'
Resources:
  Bucket:
    Type: AWS::S3::Bucket
`

// captureOutput captures stdout during f.
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-done
}

// saveAndRestoreFactories saves and restores every factory variable.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoadConfig := loadConfig
	origLoadTimeouts := loadTimeouts
	origNewBackend := newBackend
	origNewRuntimeClient := newRuntimeClient
	origIsTTY := isInteractiveTTY
	origConfirm := confirm
	origRunWatchTUI := runWatchTUI
	origReadTemplate := readTemplate
	origWatchFile := watchFile
	origListen := listenAndServe

	t.Cleanup(func() {
		loadConfig = origLoadConfig
		loadTimeouts = origLoadTimeouts
		newBackend = origNewBackend
		newRuntimeClient = origNewRuntimeClient
		isInteractiveTTY = origIsTTY
		confirm = origConfirm
		runWatchTUI = origRunWatchTUI
		readTemplate = origReadTemplate
		watchFile = origWatchFile
		listenAndServe = origListen
	})
}

// useFakes installs a test configuration, the given backend and runtime
// client, and a non-interactive terminal.
func useFakes(t *testing.T, backend stack.Backend, rc RuntimeClient, mutate ...func(*config.Config)) {
	t.Helper()
	saveAndRestoreFactories(t)

	loadConfig = func(string) (*config.Config, error) {
		cfg := &config.Config{
			Region:   "us-east-1",
			Role:     config.RoleOrchestrator,
			LogLevel: "error",
		}
		for _, m := range mutate {
			m(cfg)
		}
		return cfg, nil
	}
	loadTimeouts = func() *config.Timeouts {
		return &config.Timeouts{
			BackendCall:       5 * time.Second,
			AgentInvoke:       5 * time.Second,
			RetryMaxAttempts:  0,
			RetryInitialDelay: time.Millisecond,
			WatchInterval:     time.Millisecond,
			WatchTimeout:      time.Second,
			ShutdownGrace:     time.Second,
		}
	}
	newBackend = func(context.Context, *config.Config, logr.Logger) (stack.Backend, error) {
		return backend, nil
	}
	newRuntimeClient = func(context.Context, *config.Config, logr.Logger) (RuntimeClient, error) {
		return rc, nil
	}
	isInteractiveTTY = func() bool { return false }
	readTemplate = func(string) ([]byte, error) { return []byte(validTemplate), nil }
}

// fakeRuntimeClient is an in-memory RuntimeClient.
type fakeRuntimeClient struct {
	mu      sync.Mutex
	agents  map[string]agent.Agent
	tags    map[string]map[string]string
	tagErr  map[string]error
	tagged  []string
	prompts []string
}

func (f *fakeRuntimeClient) Agent(arn string) agent.Agent {
	if a, ok := f.agents[arn]; ok {
		return a
	}
	return agent.Static{"no agent for " + arn}
}

func (f *fakeRuntimeClient) TagRuntime(_ context.Context, arn string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tagErr[arn]; err != nil {
		return err
	}
	f.tagged = append(f.tagged, arn)
	if f.tags == nil {
		f.tags = make(map[string]map[string]string)
	}
	f.tags[arn] = tags
	return nil
}

func (f *fakeRuntimeClient) RuntimeTags(_ context.Context, arn string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tagErr[arn]; err != nil {
		return nil, err
	}
	return f.tags[arn], nil
}

// recordingAgent records prompts and replays chunks.
type recordingAgent struct {
	client *fakeRuntimeClient
	chunks []string
}

func (a recordingAgent) Stream(ctx context.Context, sessionID, prompt string) (<-chan agent.Chunk, error) {
	a.client.mu.Lock()
	a.client.prompts = append(a.client.prompts, sessionID+":"+prompt)
	a.client.mu.Unlock()
	return agent.Static(a.chunks).Stream(ctx, sessionID, prompt)
}
