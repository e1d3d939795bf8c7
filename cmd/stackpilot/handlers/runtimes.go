package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/imamik/stackpilot/internal/config"
	"github.com/imamik/stackpilot/internal/platform/agentcore"
	"github.com/imamik/stackpilot/internal/util/async"
	"github.com/imamik/stackpilot/internal/util/naming"
	"github.com/imamik/stackpilot/internal/util/tags"
)

// MsgRuntimeNotFound is printed for runtimes that do not exist yet.
const MsgRuntimeNotFound = "not found - may need to be deployed first"

// runtimeOutcome is the result of one runtime operation.
type runtimeOutcome struct {
	runtime  config.Runtime
	tags     map[string]string
	notFound bool
	err      error
}

// RuntimesTag applies the retention tags to every configured runtime.
// Runtimes that do not exist are reported without failing the run.
func RuntimesTag(ctx context.Context, opts Options) error {
	retention := tags.RuntimeRetention()

	return forEachRuntime(ctx, opts, "Tagging", func(ctx context.Context, rc RuntimeClient, rt config.Runtime) runtimeOutcome {
		err := rc.TagRuntime(ctx, rt.ARN, retention)
		return outcome(rt, nil, err)
	}, func(o runtimeOutcome) {
		fmt.Printf("  %s %-14s %s\n", outGreenStyle.Render("[OK]"), o.runtime.Name, outDimStyle.Render(formatTags(retention)))
	})
}

// RuntimesVerify prints the tags of every configured runtime.
func RuntimesVerify(ctx context.Context, opts Options) error {
	retention := tags.RuntimeRetention()

	return forEachRuntime(ctx, opts, "Verifying", func(ctx context.Context, rc RuntimeClient, rt config.Runtime) runtimeOutcome {
		t, err := rc.RuntimeTags(ctx, rt.ARN)
		return outcome(rt, t, err)
	}, func(o runtimeOutcome) {
		missing := missingTags(o.tags, retention)
		icon := outGreenStyle.Render("[OK]")
		if len(missing) > 0 {
			icon = outYellowStyle.Render("[??]")
		}
		fmt.Printf("  %s %-14s %s\n", icon, o.runtime.Name, outDimStyle.Render(formatTags(o.tags)))
		if len(missing) > 0 {
			fmt.Printf("       missing: %s\n", strings.Join(missing, ", "))
		}
	})
}

func forEachRuntime(
	ctx context.Context,
	opts Options,
	verb string,
	op func(context.Context, RuntimeClient, config.Runtime) runtimeOutcome,
	printOK func(runtimeOutcome),
) error {
	e, err := setup(opts)
	if err != nil {
		return err
	}

	var configured []config.Runtime
	for _, rt := range e.cfg.Runtimes() {
		if rt.ARN == "" {
			fmt.Printf("  %s %-14s %s\n", outDimStyle.Render("[--]"), rt.Name, outDimStyle.Render(rt.Env+" not set, skipped"))
			continue
		}
		configured = append(configured, rt)
	}
	if len(configured) == 0 {
		return errors.New("no agent runtimes configured")
	}

	rc, err := newRuntimeClient(ctx, e.cfg, e.log)
	if err != nil {
		return fmt.Errorf("failed to create agent runtime client: %w", err)
	}

	fmt.Printf("%s %d runtime(s)...\n", verb, len(configured))

	results := async.Map(ctx, configured, func(ctx context.Context, rt config.Runtime) runtimeOutcome {
		callCtx, cancel := e.backendContext(ctx)
		defer cancel()
		return op(callCtx, rc, rt)
	})

	var failed []string
	for _, o := range results {
		switch {
		case o.notFound:
			fmt.Printf("  %s %-14s %s\n", outYellowStyle.Render("[??]"), o.runtime.Name, MsgRuntimeNotFound)
		case o.err != nil:
			fmt.Printf("  %s %-14s %v\n", outRedStyle.Render("[!!]"), o.runtime.Name, o.err)
			failed = append(failed, o.runtime.Name)
		default:
			printOK(o)
		}
		fmt.Printf("       %s\n", outDimStyle.Render(naming.RuntimeName(o.runtime.ARN)))
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed for runtime(s): %s", strings.Join(failed, ", "))
	}
	return nil
}

func outcome(rt config.Runtime, t map[string]string, err error) runtimeOutcome {
	if agentcore.IsNotFound(err) {
		return runtimeOutcome{runtime: rt, notFound: true}
	}
	return runtimeOutcome{runtime: rt, tags: t, err: err}
}

func formatTags(t map[string]string) string {
	if len(t) == 0 {
		return "(no tags)"
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+t[k])
	}
	return strings.Join(parts, " ")
}

// missingTags lists the wanted keys whose value is absent or different.
func missingTags(have, want map[string]string) []string {
	var missing []string
	for k, v := range want {
		if have[k] != v {
			missing = append(missing, k+"="+v)
		}
	}
	sort.Strings(missing)
	return missing
}
