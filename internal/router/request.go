package router

import (
	"fmt"
	"strings"

	"github.com/imamik/stackpilot/internal/config"
	"github.com/imamik/stackpilot/internal/template"
)

// Action names an operation a request can ask for.
type Action string

const (
	ActionGenerate Action = "generate"
	ActionValidate Action = "validate"
	ActionDeploy   Action = "deploy"
	ActionStatus   Action = "status"
	ActionEvents   Action = "events"
	ActionAssist   Action = "assist"
)

// Actions lists every action in routing order.
func Actions() []Action {
	return []Action{ActionGenerate, ActionValidate, ActionDeploy, ActionStatus, ActionEvents, ActionAssist}
}

// Role restricts which actions a deployment of the router serves.
type Role string

const (
	RoleOrchestrator Role = config.RoleOrchestrator
	RoleOnboarding   Role = config.RoleOnboarding
	RoleProvisioning Role = config.RoleProvisioning
)

var roleActions = map[Role][]Action{
	RoleOrchestrator: Actions(),
	RoleOnboarding:   {ActionGenerate, ActionValidate},
	RoleProvisioning: {ActionValidate, ActionDeploy, ActionStatus, ActionEvents},
}

// ParseRole parses a role name. An empty name is the orchestrator.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RoleOrchestrator, nil
	}
	if _, ok := roleActions[r]; !ok {
		return "", fmt.Errorf("unknown role %q (expected orchestrator, onboarding or provisioning)", s)
	}
	return r, nil
}

// Allows reports whether the role serves a.
func (r Role) Allows(a Action) bool {
	for _, allowed := range roleActions[r] {
		if allowed == a {
			return true
		}
	}
	return false
}

// Request is one invocation payload.
type Request struct {
	SessionID   string            `json:"session_id,omitempty"`
	Prompt      string            `json:"prompt,omitempty"`
	Action      Action            `json:"action,omitempty"`
	Description string            `json:"description,omitempty"`
	StackName   string            `json:"stack_name,omitempty"`
	Template    string            `json:"template,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Remote      bool              `json:"remote,omitempty"`
}

// ResolveAction returns the requested action, or the default action of role
// for a request that names none. An orchestrator assists, onboarding
// generates, and provisioning picks from what the request carries: deploy
// with a template and a stack name, status with only a stack name, validate
// otherwise.
func (r Request) ResolveAction(role Role) Action {
	a := Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	if a != "" {
		return a
	}

	hasPrompt := strings.TrimSpace(r.Prompt) != ""
	switch role {
	case RoleOnboarding:
		if hasPrompt || strings.TrimSpace(r.Description) != "" {
			return ActionGenerate
		}
	case RoleProvisioning:
		hasTemplate := strings.TrimSpace(r.Template) != "" || promptTemplate(r.Prompt) != ""
		hasStack := strings.TrimSpace(r.StackName) != ""
		switch {
		case hasTemplate && hasStack:
			return ActionDeploy
		case hasStack:
			return ActionStatus
		case hasTemplate || hasPrompt:
			return ActionValidate
		}
	default:
		if hasPrompt {
			return ActionAssist
		}
	}
	return ""
}

// promptTemplate returns a template carried by prompt: a fenced block, or the
// whole prompt when it is a valid template on its own.
func promptTemplate(prompt string) string {
	text := strings.TrimSpace(prompt)
	if text == "" {
		return ""
	}
	body := template.Extract(text)
	if body != text || template.Validate(body).Valid {
		return body
	}
	return ""
}
