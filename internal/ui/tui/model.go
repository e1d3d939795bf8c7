package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/ui/benchmarks"
)

// maxEvents bounds the events kept for display.
const maxEvents = 8

// Model is the Bubble Tea model for the stack watch dashboard.
type Model struct {
	StackName string
	Region    string

	// Backend-sourced state
	State     stack.State
	Reason    string
	Resources []stack.ResourceRecord
	Outputs   map[string]string
	Events    []stack.Event
	CreatedAt time.Time

	// ETA
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	// UI state
	Spinner spinner.Model
	Width   int
	Height  int
	Err     error
	Done    bool
}

// NewWatchModel creates a model for the watch command TUI.
func NewWatchModel(stackName, region string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		StackName:        stackName,
		Region:           region,
		StartTime:        time.Now(),
		PerformanceScale: 1.0,
		Spinner:          s,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StatusMsg:
		if msg.NotFound {
			m.Err = fmt.Errorf("stack %s not found. Run 'stackpilot deploy' to create it", m.StackName)
			return m, tea.Quit
		}
		if msg.FetchErr != "" {
			m.Err = fmt.Errorf("failed to fetch stack status: %s", msg.FetchErr)
			return m, tea.Quit
		}
		m.updateStatus(msg)
		if m.State.IsTerminal() {
			m.Done = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case TickMsg:
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateStatus(msg StatusMsg) {
	if snap := msg.Snapshot; snap != nil {
		m.State = snap.State
		m.Reason = snap.Reason
		m.Resources = snap.Resources
		m.Outputs = snap.Outputs
		m.CreatedAt = snap.CreatedAt
	}
	if msg.Events != nil {
		m.Events = msg.Events
		if len(m.Events) > maxEvents {
			m.Events = m.Events[:maxEvents]
		}
	}
	m.updateETA()
}

func (m *Model) updateETA() {
	if !m.State.IsInProgress() {
		m.EstimatedRemaining = 0
		return
	}

	start := m.CreatedAt
	if start.IsZero() {
		start = m.StartTime
	}
	elapsed := time.Since(start)

	m.PerformanceScale = benchmarks.PerformanceScale(m.Resources, elapsed)
	m.EstimatedRemaining = benchmarks.EstimateRemainingWithScale(m.Resources, elapsed, m.PerformanceScale)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
