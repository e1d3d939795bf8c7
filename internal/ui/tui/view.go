package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/stackpilot/internal/stack"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)

	if len(m.Resources) > 0 {
		renderProgressBar(&b, m)
		renderResources(&b, m)
	}

	if len(m.Outputs) > 0 {
		renderOutputs(&b, m)
	}

	if len(m.Events) > 0 {
		renderEvents(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("stackpilot: %s", m.StackName)
	if m.Region != "" {
		title += fmt.Sprintf(" (%s)", m.Region)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.State == "":
		status += mutedStyle.Render("Waiting for status...")
	case m.State.IsInProgress():
		status += m.Spinner.View() + " " + StateStyle(m.State).Render(string(m.State))
	default:
		status += StateStyle(m.State).Render(string(m.State))
	}
	b.WriteString(status)
	b.WriteString("\n")

	if m.Reason != "" {
		fmt.Fprintf(b, "  %s\n", mutedStyle.Render(m.Reason))
	}
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := completeStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", barWidth-filled))

	pct := int(progress * 100)
	eta := ""
	if m.EstimatedRemaining > 0 {
		eta = fmt.Sprintf(" ETA %s", formatDuration(m.EstimatedRemaining))
	}
	if m.PerformanceScale != 0 && m.PerformanceScale != 1.0 {
		eta += fmt.Sprintf("  speed x%.2f", m.PerformanceScale)
	}

	fmt.Fprintf(b, "  %s %d%%%s\n", bar, pct, eta)
}

func renderResources(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Resources"))
	b.WriteString("\n")

	for _, r := range m.Resources {
		icon, style := resourceIcon(m, stack.State(r.Status))
		fmt.Fprintf(b, "    %s %-24s %-32s %s\n",
			style(icon), style(r.LogicalID), mutedStyle.Render(r.Type), style(r.Status))
		if r.Reason != "" && stack.State(r.Status).IsFailed() {
			fmt.Fprintf(b, "         %s\n", mutedStyle.Render(r.Reason))
		}
	}
}

func renderOutputs(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Outputs"))
	b.WriteString("\n")

	keys := make([]string, 0, len(m.Outputs))
	for k := range m.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "    %-24s %s\n", k, m.Outputs[k])
	}
}

func renderEvents(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Recent Events"))
	b.WriteString("\n")

	for _, ev := range m.Events {
		style := mutedStyle.Render
		if stack.State(ev.Status).IsFailed() {
			style = failedStyle.Render
		}
		line := fmt.Sprintf("%s  %-24s %s", ev.Timestamp.Local().Format(time.TimeOnly), ev.LogicalID, ev.Status)
		if ev.Reason != "" {
			line += "  " + ev.Reason
		}
		fmt.Fprintf(b, "    %s\n", style(line))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	parts := []string{fmt.Sprintf("elapsed: %s", elapsed)}
	if phase := m.State.Phase(); phase != stack.PhaseUnknown {
		parts = append(parts, fmt.Sprintf("phase: %s", phase))
	}
	b.WriteString(mutedStyle.MarginTop(1).Render(fmt.Sprintf("  %s  |  q: quit", strings.Join(parts, "  |  "))))
	b.WriteString("\n")
}

func resourceIcon(m Model, s stack.State) (string, styleFunc) {
	switch {
	case s.IsFailed():
		return markFailed, sf(failedStyle)
	case s.IsRollback():
		return markRollback, sf(inProgressStyle)
	case s.IsComplete():
		return markComplete, sf(completeStyle)
	case s.IsInProgress():
		return m.Spinner.View(), sf(spinnerStyle)
	default:
		return markPending, sf(mutedStyle)
	}
}

func calculateProgress(m Model) float64 {
	if m.State.IsComplete() {
		return 1.0
	}
	if len(m.Resources) == 0 {
		return 0
	}

	done := 0
	for _, r := range m.Resources {
		if stack.State(r.Status).IsTerminal() {
			done++
		}
	}
	return float64(done) / float64(len(m.Resources))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
