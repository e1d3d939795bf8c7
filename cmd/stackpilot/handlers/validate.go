package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/stackpilot/internal/logging"
	"github.com/imamik/stackpilot/internal/metrics"
	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/template"
	"github.com/imamik/stackpilot/internal/watch"
)

// ErrInvalidTemplate is returned when a template fails validation.
var ErrInvalidTemplate = errors.New("template validation failed")

// Factory function variables for validate - can be replaced in tests.
var (
	// readTemplate reads a template file.
	readTemplate = os.ReadFile

	// watchFile follows a file for changes.
	watchFile = watch.File
)

// ValidateResult is the structured output of validate.
type ValidateResult struct {
	Path   string                  `json:"path"`
	Local  template.Result         `json:"local"`
	Remote *stack.RemoteValidation `json:"remote,omitempty"`
}

// Validate checks a template file locally and, with remote set, against the
// provisioning backend. With watchMode set it re-validates on every save
// until interrupted.
func Validate(ctx context.Context, opts Options, path string, remote, watchMode bool, output string) error {
	if err := validateOutput(output); err != nil {
		return err
	}

	var prov *stack.Provisioner
	if remote {
		e, err := setup(opts)
		if err != nil {
			return err
		}
		if prov, err = e.provisioner(ctx); err != nil {
			return err
		}
	}

	if !watchMode {
		return validateOnce(ctx, prov, path, output)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		if err := validateOnce(ctx, prov, path, output); err != nil && !errors.Is(err, ErrInvalidTemplate) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	run()
	fmt.Printf("Watching %s for changes (Ctrl+C to stop)...\n", path)

	return watchFile(ctx, logging.New(os.Stderr, opts.LogLevel), path, 0, run)
}

func validateOnce(ctx context.Context, prov *stack.Provisioner, path, output string) error {
	body, err := readTemplate(path)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	result := ValidateResult{Path: path, Local: template.Validate(string(body))}
	metrics.RecordValidation(result.Local.Valid)

	if prov != nil && result.Local.Valid {
		result.Remote = prov.ValidateRemote(ctx, string(body))
	}

	printed, err := printStructured(output, result)
	if err != nil {
		return err
	}
	if !printed {
		fmt.Print(renderValidation(path, result.Local))
		if result.Remote != nil {
			fmt.Print(renderRemoteValidation(result.Remote))
		}
	}

	if !result.Local.Valid || (result.Remote != nil && !result.Remote.Valid) {
		return ErrInvalidTemplate
	}
	return nil
}
