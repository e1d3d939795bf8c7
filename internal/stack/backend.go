package stack

import (
	"context"
	"time"
)

// Backend is the remote provisioning service. Implementations wrap
// ErrNotFound when a stack does not exist and may return *BackendError for
// everything else.
type Backend interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error)
	Describe(ctx context.Context, name string) (*Description, error)
	DescribeResources(ctx context.Context, name string) ([]ResourceRecord, error)
	// DescribeEvents returns events newest first. max is a hint for how many
	// the caller needs; implementations may return more.
	DescribeEvents(ctx context.Context, name string, max int) ([]Event, error)
	ValidateTemplate(ctx context.Context, body string) (*RemoteValidation, error)
}

// SubmitInput is everything the backend needs to create a stack.
type SubmitInput struct {
	Name         string
	TemplateBody string
	Parameters   []Parameter
	Capabilities []Capability
	OnFailure    FailurePolicy
	Tags         []Tag
}

// SubmitOutput is the backend's acknowledgment.
type SubmitOutput struct {
	ID    string
	State State
}

// Description is the stack-level part of a status read.
type Description struct {
	Name      string
	ID        string
	State     State
	Reason    string
	CreatedAt time.Time
	UpdatedAt *time.Time
	Outputs   map[string]string
}
