package router

import (
	"encoding/json"

	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/template"
)

// Step names used in results.
const (
	StepRoute          = "route"
	StepGenerate       = "generate"
	StepValidate       = "validate"
	StepValidateRemote = "validate_remote"
	StepDeploy         = "deploy"
	StepStatus         = "status"
	StepEvents         = "events"
	StepAssist         = "assist"
)

// StepResult reports the outcome of one step.
type StepResult struct {
	Step      string   `json:"step"`
	Success   bool     `json:"success"`
	Message   string   `json:"message,omitempty"`
	Error     string   `json:"error,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Notes     []string `json:"notes,omitempty"`
	StackName string   `json:"stack_name,omitempty"`
	StackID   string   `json:"stack_id,omitempty"`
	State     string   `json:"state,omitempty"`
	Phase     string   `json:"phase,omitempty"`

	Validation *template.Result        `json:"validation,omitempty"`
	Remote     *stack.RemoteValidation `json:"remote,omitempty"`
	Status     *stack.Snapshot         `json:"status,omitempty"`
	Events     []stack.Event           `json:"events,omitempty"`
}

// Fragment is one piece of streamed output. Result is set when the fragment
// reports a step.
type Fragment struct {
	Text   string
	Result *StepResult
}

func resultFragment(r StepResult) Fragment {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(StepResult{Step: r.Step, Success: false, Error: err.Error()})
	}
	return Fragment{Text: string(b) + "\n", Result: &r}
}

func failure(step string, err error) StepResult {
	return StepResult{Step: step, Success: false, Error: err.Error()}
}
