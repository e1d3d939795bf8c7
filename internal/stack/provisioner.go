package stack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/stackpilot/internal/util/async"
	"github.com/imamik/stackpilot/internal/util/retry"
	"github.com/imamik/stackpilot/internal/util/tags"
)

// Provisioner runs stack operations against a Backend.
type Provisioner struct {
	backend   Backend
	log       logr.Logger
	retryOpts []retry.Option
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(p *Provisioner) {
		p.log = log
	}
}

// WithRetryOptions tunes the backoff used for pre-acknowledgment submission
// failures.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(p *Provisioner) {
		p.retryOpts = append(p.retryOpts, opts...)
	}
}

// NewProvisioner creates a Provisioner backed by b.
func NewProvisioner(b Backend, opts ...Option) *Provisioner {
	p := &Provisioner{
		backend: b,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Deploy submits a template and returns as soon as the backend acknowledges
// it. Capabilities, failure policy and tags are fixed.
//
// Only failures that provably happened before the backend received the
// request are retried. Anything else, including name collisions, is returned
// as a *DeployError carrying the backend message.
func (p *Provisioner) Deploy(ctx context.Context, in DeployInput) (*DeployResult, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &DeployError{Err: errors.New("stack name is required")}
	}

	log := p.log.WithValues("stack", in.Name)
	submit := SubmitInput{
		Name:         in.Name,
		TemplateBody: in.Template,
		Parameters:   Parameters(in.Parameters),
		Capabilities: RequiredCapabilities(),
		OnFailure:    FailurePolicyRollback,
		Tags:         provenanceTags(),
	}

	var (
		out       *SubmitOutput
		submitErr error
	)
	opts := append(append([]retry.Option(nil), p.retryOpts...), retry.WithRetryIf(IsRetryable))
	err := retry.Do(ctx, func(ctx context.Context) error {
		o, err := p.backend.Submit(ctx, submit)
		submitErr = err
		if err != nil {
			if IsRetryable(err) {
				log.V(1).Info("submission never reached the backend, retrying", "error", err.Error())
			}
			return err
		}
		out = o
		return nil
	}, opts...)
	if err != nil {
		cause := submitErr
		if cause == nil {
			cause = err
		}
		log.Info("stack submission failed", "error", cause.Error())
		return nil, &DeployError{Name: in.Name, Err: asBackendError("CreateStack", cause)}
	}

	state := out.State
	if state == "" {
		state = StateCreateInProgress
	}
	log.Info("stack submission acknowledged", "id", out.ID, "state", state)

	return &DeployResult{
		Name:    in.Name,
		ID:      out.ID,
		State:   state,
		Message: fmt.Sprintf("Stack %s deployment initiated successfully", in.Name),
	}, nil
}

// GetStatus reads the stack state, its resources and its outputs.
func (p *Provisioner) GetStatus(ctx context.Context, name string) (*Snapshot, error) {
	var (
		desc      *Description
		resources []ResourceRecord
	)
	err := async.RunParallel(ctx, []async.Task{
		{Name: "describe stack", Func: func(ctx context.Context) error {
			d, err := p.backend.Describe(ctx, name)
			desc = d
			return err
		}},
		{Name: "describe stack resources", Func: func(ctx context.Context) error {
			r, err := p.backend.DescribeResources(ctx, name)
			resources = r
			return err
		}},
	})
	if err != nil {
		return nil, readError("DescribeStacks", name, err)
	}

	snap := &Snapshot{
		Name:      desc.Name,
		ID:        desc.ID,
		State:     desc.State,
		Reason:    desc.Reason,
		CreatedAt: desc.CreatedAt,
		UpdatedAt: desc.UpdatedAt,
		Resources: append([]ResourceRecord{}, resources...),
		Outputs:   make(map[string]string, len(desc.Outputs)),
	}
	if snap.Name == "" {
		snap.Name = name
	}
	for k, v := range desc.Outputs {
		snap.Outputs[k] = v
	}
	return snap, nil
}

// GetEvents returns at most limit events, newest first, in backend order.
// A non-positive limit means DefaultEventLimit.
func (p *Provisioner) GetEvents(ctx context.Context, name string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	events, err := p.backend.DescribeEvents(ctx, name, limit)
	if err != nil {
		return nil, readError("DescribeStackEvents", name, err)
	}
	if len(events) > limit {
		events = events[:limit]
	}
	return append([]Event{}, events...), nil
}

// ValidateRemote asks the backend to validate a template. Backend rejections
// come back as an invalid verdict, not as an error.
func (p *Provisioner) ValidateRemote(ctx context.Context, body string) *RemoteValidation {
	res, err := p.backend.ValidateTemplate(ctx, body)
	if err != nil {
		msg := asBackendError("ValidateTemplate", err).Error()
		p.log.V(1).Info("remote template validation rejected", "error", msg)
		return &RemoteValidation{
			Valid:   false,
			Error:   msg,
			Message: "Template validation failed: " + msg,
		}
	}

	res.Valid = true
	if res.Description == "" {
		res.Description = "No description"
	}
	if res.Message == "" {
		res.Message = "Template is valid"
	}
	return res
}

// Parameters converts a parameter map into key/value pairs sorted by key.
// A nil map yields an empty list.
func Parameters(m map[string]string) []Parameter {
	out := make([]Parameter, 0, len(m))
	for k, v := range m {
		out = append(out, Parameter{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func provenanceTags() []Tag {
	pairs := tags.StackProvenance()
	out := make([]Tag, len(pairs))
	for i, p := range pairs {
		out[i] = Tag{Key: p.Key, Value: p.Value}
	}
	return out
}

func readError(op, name string, err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		if nf.Name == "" {
			nf.Name = name
		}
		return nf
	}
	if errors.Is(err, ErrNotFound) {
		return &NotFoundError{Name: name}
	}
	return asBackendError(op, err)
}
