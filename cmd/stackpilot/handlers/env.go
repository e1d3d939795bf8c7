package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/stackpilot/internal/agent"
	"github.com/imamik/stackpilot/internal/config"
	"github.com/imamik/stackpilot/internal/logging"
	"github.com/imamik/stackpilot/internal/platform/agentcore"
	"github.com/imamik/stackpilot/internal/platform/cloudformation"
	"github.com/imamik/stackpilot/internal/platform/s3"
	"github.com/imamik/stackpilot/internal/router"
	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/ui/tui"
	"github.com/imamik/stackpilot/internal/util/retry"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// RuntimeClient talks to hosted agent runtimes.
type RuntimeClient interface {
	Agent(arn string) agent.Agent
	TagRuntime(ctx context.Context, arn string, tags map[string]string) error
	RuntimeTags(ctx context.Context, arn string) (map[string]string, error)
}

// agentcoreClient adapts *agentcore.Client to RuntimeClient.
type agentcoreClient struct {
	*agentcore.Client
}

func (c agentcoreClient) Agent(arn string) agent.Agent {
	return c.Runtime(arn)
}

// Factory function variables - can be replaced in tests.
var (
	// loadConfig loads and validates the configuration.
	loadConfig = config.Load

	// loadTimeouts reads timeouts from the environment.
	loadTimeouts = config.LoadTimeouts

	// newBackend creates the provisioning backend. Oversized templates are
	// staged in the template bucket when one is configured.
	newBackend = func(ctx context.Context, cfg *config.Config, log logr.Logger) (stack.Backend, error) {
		opts := []cloudformation.Option{cloudformation.WithLogger(log)}
		if cfg.TemplateBucket != "" {
			stager, err := s3.NewClient(ctx, cfg.AWSSettings(), cfg.TemplateBucket)
			if err != nil {
				return nil, err
			}
			opts = append(opts, cloudformation.WithStager(stager))
		}
		return cloudformation.NewClient(ctx, cfg.AWSSettings(), opts...)
	}

	// newRuntimeClient creates the agent runtime client.
	newRuntimeClient = func(ctx context.Context, cfg *config.Config, log logr.Logger) (RuntimeClient, error) {
		c, err := agentcore.NewClient(ctx, cfg.AWSSettings(), agentcore.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return agentcoreClient{c}, nil
	}

	// isInteractiveTTY reports whether stdout is a terminal.
	isInteractiveTTY = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	// confirm asks a yes/no question.
	confirm = func(ctx context.Context, title, description string) (bool, error) {
		var ok bool
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(title).
					Description(description).
					Affirmative("Deploy").
					Negative("Cancel").
					Value(&ok),
			),
		).RunWithContext(ctx)
		return ok, err
	}

	// runWatchTUI runs the interactive watch dashboard.
	runWatchTUI = tui.RunWatchTUI
)

// env is the per-invocation context every handler builds on.
type env struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	log      logr.Logger
}

func setup(opts Options) (*env, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	return &env{
		cfg:      cfg,
		timeouts: loadTimeouts(),
		log:      logging.New(os.Stderr, level),
	}, nil
}

func (e *env) provisioner(ctx context.Context) (*stack.Provisioner, error) {
	backend, err := newBackend(ctx, e.cfg, e.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create provisioning backend: %w", err)
	}
	return stack.NewProvisioner(backend,
		stack.WithLogger(e.log),
		stack.WithRetryOptions(
			retry.WithMaxRetries(e.timeouts.RetryMaxAttempts),
			retry.WithInitialDelay(e.timeouts.RetryInitialDelay),
		),
	), nil
}

// router builds a router for role. Agent collaborators are wired only when
// their runtime is configured.
func (e *env) router(ctx context.Context, prov router.Provisioner, role router.Role) (*router.Router, error) {
	opts := []router.Option{
		router.WithRole(role),
		router.WithLogger(e.log),
		router.WithTimeouts(e.timeouts.BackendCall, e.timeouts.AgentInvoke),
	}

	agents := e.cfg.Agents
	if agents.OnboardingARN != "" || agents.ProvisioningARN != "" {
		rc, err := newRuntimeClient(ctx, e.cfg, e.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent runtime client: %w", err)
		}
		if agents.OnboardingARN != "" {
			opts = append(opts, router.WithGenerator(rc.Agent(agents.OnboardingARN)))
		}
		if agents.ProvisioningARN != "" {
			opts = append(opts, router.WithAssistant(rc.Agent(agents.ProvisioningARN)))
		}
	}

	return router.New(prov, opts...), nil
}

// backendContext bounds a single backend call.
func (e *env) backendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.timeouts.BackendCall)
}
