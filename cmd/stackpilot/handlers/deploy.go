package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/template"
)

// ErrDeployCancelled is returned when the user declines the deployment.
var ErrDeployCancelled = errors.New("deployment cancelled")

// DeployOptions are the deploy command flags.
type DeployOptions struct {
	Parameters []string
	Yes        bool
	Wait       bool
	Interval   time.Duration
	Timeout    time.Duration
	Output     string
}

// Deploy validates a template file and submits it as a new stack. Invalid
// templates are never submitted.
func Deploy(ctx context.Context, opts Options, name, path string, dopts DeployOptions) error {
	if err := validateOutput(dopts.Output); err != nil {
		return err
	}

	params, err := ParseParameters(dopts.Parameters)
	if err != nil {
		return err
	}

	body, err := readTemplate(path)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	if res := template.Validate(string(body)); !res.Valid {
		fmt.Print(renderValidation(path, res))
		return ErrInvalidTemplate
	}

	e, err := setup(opts)
	if err != nil {
		return err
	}

	if !dopts.Yes {
		if !isInteractiveTTY() {
			return errors.New("refusing to deploy without confirmation in a non-interactive session; pass --yes")
		}
		ok, err := confirm(ctx,
			fmt.Sprintf("Deploy stack %s?", name),
			fmt.Sprintf("Template %s will be submitted in %s", path, e.cfg.Region))
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return ErrDeployCancelled
		}
	}

	prov, err := e.provisioner(ctx)
	if err != nil {
		return err
	}

	res, err := prov.Deploy(ctx, stack.DeployInput{Name: name, Template: string(body), Parameters: params})
	if err != nil {
		return fmt.Errorf("failed to deploy stack %s: %w", name, err)
	}

	printed, err := printStructured(dopts.Output, res)
	if err != nil {
		return err
	}
	if !printed {
		fmt.Print(renderDeployResult(res))
	}

	if !dopts.Wait {
		return nil
	}
	return waitForStack(ctx, e, prov, name, dopts.Interval, dopts.Timeout)
}

// ParseParameters parses KEY=VALUE pairs. Later pairs override earlier ones.
func ParseParameters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected KEY=VALUE)", p)
		}
		params[key] = value
	}
	return params, nil
}
