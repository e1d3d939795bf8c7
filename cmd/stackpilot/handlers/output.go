package handlers

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"sigs.k8s.io/yaml"

	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/template"
	"github.com/imamik/stackpilot/internal/ui/tui"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

var (
	outTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorText)
	outSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	outDimStyle     = lipgloss.NewStyle().Foreground(tui.ColorMuted)
	outGreenStyle   = lipgloss.NewStyle().Foreground(tui.ColorComplete)
	outRedStyle     = lipgloss.NewStyle().Foreground(tui.ColorFailed)
	outYellowStyle  = lipgloss.NewStyle().Foreground(tui.ColorInProgress)
)

// validateOutput rejects unknown output formats.
func validateOutput(format string) error {
	switch format {
	case "", OutputTable, OutputJSON, OutputYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (expected table, json or yaml)", format)
}

// printStructured prints v as JSON or YAML. It reports false for table
// output so the caller can render its own view.
func printStructured(format string, v any) (bool, error) {
	switch format {
	case OutputJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(b))
		return true, nil
	case OutputYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(b))
		return true, nil
	}
	return false, nil
}

func renderValidation(path string, res template.Result) string {
	var b strings.Builder
	if res.Valid {
		fmt.Fprintf(&b, "%s %s: %s\n", outGreenStyle.Render("[OK]"), path, res.Message)
	} else {
		fmt.Fprintf(&b, "%s %s: template is invalid\n", outRedStyle.Render("[!!]"), path)
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "     - %s\n", e)
		}
	}
	for _, n := range res.Notes {
		fmt.Fprintf(&b, "     %s\n", outYellowStyle.Render("note: "+n))
	}
	if res.Summary != nil {
		renderSummary(&b, res.Summary)
	}
	return b.String()
}

func renderSummary(b *strings.Builder, sum *template.Summary) {
	fmt.Fprintf(b, "     Format:       %s\n", sum.Format)
	for _, r := range sum.Resources {
		typ := r.Type
		if typ == "" {
			typ = "-"
		}
		fmt.Fprintf(b, "     Resource:     %-24s %s\n", r.LogicalID, outDimStyle.Render(typ))
	}
	if len(sum.Parameters) > 0 {
		fmt.Fprintf(b, "     Parameters:   %s\n", strings.Join(sum.Parameters, ", "))
	}
	if len(sum.Outputs) > 0 {
		fmt.Fprintf(b, "     Outputs:      %s\n", strings.Join(sum.Outputs, ", "))
	}
}

func renderRemoteValidation(rv *stack.RemoteValidation) string {
	var b strings.Builder
	if !rv.Valid {
		fmt.Fprintf(&b, "%s %s\n", outRedStyle.Render("[!!]"), rv.Message)
		return b.String()
	}
	fmt.Fprintf(&b, "%s %s\n", outGreenStyle.Render("[OK]"), rv.Message)
	fmt.Fprintf(&b, "     Description:  %s\n", rv.Description)
	if len(rv.Parameters) > 0 {
		fmt.Fprintf(&b, "     Parameters:   %s\n", strings.Join(rv.Parameters, ", "))
	}
	if len(rv.Capabilities) > 0 {
		fmt.Fprintf(&b, "     Capabilities: %s\n", strings.Join(rv.Capabilities, ", "))
	}
	if rv.CapabilitiesReason != "" {
		fmt.Fprintf(&b, "     %s\n", outDimStyle.Render(rv.CapabilitiesReason))
	}
	return b.String()
}

func renderDeployResult(res *stack.DeployResult) string {
	var b strings.Builder
	b.WriteString(outGreenStyle.Render(res.Message))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Stack ID: %s\n", res.ID)
	fmt.Fprintf(&b, "  State:    %s\n", tui.StateStyle(res.State).Render(string(res.State)))
	return b.String()
}

func renderSnapshot(snap *stack.Snapshot) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(outTitleStyle.Render(fmt.Sprintf("  %s", snap.Name)))
	b.WriteString(" ")
	b.WriteString(tui.StateStyle(snap.State).Render(string(snap.State)))
	b.WriteString("\n")
	b.WriteString(outDimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n")

	if snap.Reason != "" {
		fmt.Fprintf(&b, "  Reason:   %s\n", snap.Reason)
	}
	fmt.Fprintf(&b, "  Phase:    %s\n", snap.State.Phase())
	if !snap.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "  Created:  %s\n", snap.CreatedAt.Local().Format(time.RFC3339))
	}
	if snap.UpdatedAt != nil {
		fmt.Fprintf(&b, "  Updated:  %s\n", snap.UpdatedAt.Local().Format(time.RFC3339))
	}

	b.WriteString("\n")
	b.WriteString(outSectionStyle.Render("  Resources"))
	b.WriteString("\n")
	if len(snap.Resources) == 0 {
		b.WriteString(outDimStyle.Render("    (none)"))
		b.WriteString("\n")
	}
	for _, r := range snap.Resources {
		physical := r.PhysicalID
		if physical == "" {
			physical = "-"
		}
		fmt.Fprintf(&b, "    %-24s %-32s %s  %s\n",
			r.LogicalID, outDimStyle.Render(r.Type),
			tui.StateStyle(stack.State(r.Status)).Render(r.Status), outDimStyle.Render(physical))
	}

	if len(snap.Outputs) > 0 {
		b.WriteString("\n")
		b.WriteString(outSectionStyle.Render("  Outputs"))
		b.WriteString("\n")
		keys := make([]string, 0, len(snap.Outputs))
		for k := range snap.Outputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "    %-24s %s\n", k, snap.Outputs[k])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func renderEvents(events []stack.Event) string {
	var b strings.Builder
	if len(events) == 0 {
		b.WriteString(outDimStyle.Render("No events"))
		b.WriteString("\n")
		return b.String()
	}
	for _, ev := range events {
		line := fmt.Sprintf("%s  %-24s %-32s %s",
			ev.Timestamp.Local().Format(time.RFC3339), ev.LogicalID,
			outDimStyle.Render(ev.ResourceType), tui.StateStyle(stack.State(ev.Status)).Render(ev.Status))
		if ev.Reason != "" {
			line += "  " + outDimStyle.Render(ev.Reason)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
