package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/stackpilot/internal/agent"
	"github.com/imamik/stackpilot/internal/config"
	"github.com/imamik/stackpilot/internal/metrics"
	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/template"
	"github.com/imamik/stackpilot/internal/util/naming"
)

// Provisioner is the stack lifecycle the router drives.
type Provisioner interface {
	Deploy(ctx context.Context, in stack.DeployInput) (*stack.DeployResult, error)
	GetStatus(ctx context.Context, name string) (*stack.Snapshot, error)
	GetEvents(ctx context.Context, name string, limit int) ([]stack.Event, error)
	ValidateRemote(ctx context.Context, body string) *stack.RemoteValidation
}

// Router dispatches requests to actions.
type Router struct {
	role      Role
	prov      Provisioner
	generator agent.Agent
	assistant agent.Agent
	log       logr.Logger

	backendTimeout time.Duration
	agentTimeout   time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithRole restricts the router to the actions of role.
func WithRole(role Role) Option {
	return func(r *Router) {
		r.role = role
	}
}

// WithGenerator sets the agent that writes templates from descriptions.
func WithGenerator(a agent.Agent) Option {
	return func(r *Router) {
		r.generator = a
	}
}

// WithAssistant sets the agent free-form prompts are forwarded to.
func WithAssistant(a agent.Agent) Option {
	return func(r *Router) {
		r.assistant = a
	}
}

// WithTimeouts bounds each provisioner call and each agent invocation. A
// non-positive value leaves that kind of call bounded only by the request.
func WithTimeouts(backendCall, agentInvoke time.Duration) Option {
	return func(r *Router) {
		r.backendTimeout = backendCall
		r.agentTimeout = agentInvoke
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(r *Router) {
		r.log = log
	}
}

// New creates a Router. Collaborators that are not configured report
// themselves as unavailable when used.
func New(prov Provisioner, opts ...Option) *Router {
	r := &Router{
		role:      RoleOrchestrator,
		prov:      prov,
		generator: agent.Unavailable{Env: config.EnvOnboardingARN},
		assistant: agent.Unavailable{Env: config.EnvProvisioningARN},
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Role returns the role the router serves.
func (r *Router) Role() Role {
	return r.role
}

// Run executes req and streams its fragments. The channel is closed when the
// action is complete or ctx is cancelled.
func (r *Router) Run(ctx context.Context, req Request) <-chan Fragment {
	out := make(chan Fragment)

	go func() {
		defer close(out)

		if req.SessionID == "" {
			req.SessionID = naming.SessionID()
		}
		action := req.ResolveAction(r.role)
		log := r.log.WithValues("action", action, "session", req.SessionID)
		s := &stream{ctx: ctx, out: out}

		start := time.Now()
		r.dispatch(ctx, log, s, action, req)
		metrics.RecordRequest(string(action), s.succeeded(), time.Since(start))
		log.V(1).Info("request finished", "success", s.succeeded(), "duration", time.Since(start).String())
	}()

	return out
}

func (r *Router) dispatch(ctx context.Context, log logr.Logger, s *stream, action Action, req Request) {
	switch {
	case action == "":
		s.result(failure(StepRoute, errors.New("request needs an action or a prompt")))
		return
	case !isKnown(action):
		s.result(failure(StepRoute, fmt.Errorf("unknown action %q", action)))
		return
	case !r.role.Allows(action):
		s.result(failure(StepRoute, fmt.Errorf("action %q is not available in the %s role", action, r.role)))
		return
	}

	switch action {
	case ActionGenerate:
		r.generate(ctx, log, s, req)
	case ActionValidate:
		r.validate(ctx, log, s, req)
	case ActionDeploy:
		r.deploy(ctx, log, s, req)
	case ActionStatus:
		r.status(ctx, s, req)
	case ActionEvents:
		r.events(ctx, s, req)
	case ActionAssist:
		r.assist(ctx, log, s, req)
	}
}

func (r *Router) generate(ctx context.Context, log logr.Logger, s *stream, req Request) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = strings.TrimSpace(req.Prompt)
	}
	if description == "" {
		s.result(failure(StepGenerate, errors.New("an architecture description is required")))
		return
	}

	callCtx, cancel := withTimeout(ctx, r.agentTimeout)
	text, err := agent.Ask(callCtx, r.generator, req.SessionID, description)
	cancel()
	if err != nil {
		res := failure(StepGenerate, err)
		res.Message = "Template generation failed: " + err.Error()
		s.result(res)
		return
	}

	body := template.Extract(text)
	verdict := localValidation(log, body)

	if !s.text("```yaml\n" + body + "\n```\n") {
		return
	}

	res := StepResult{
		Step:       StepGenerate,
		Success:    verdict.Valid,
		Errors:     verdict.Errors,
		Notes:      verdict.Notes,
		Validation: &verdict,
	}
	if verdict.Valid {
		res.Message = "CloudFormation template generated successfully"
	} else {
		res.Error = "generated template failed validation"
	}
	s.result(res)
}

func (r *Router) validate(ctx context.Context, log logr.Logger, s *stream, req Request) {
	body := requestTemplate(req)
	if body == "" {
		s.result(failure(StepValidate, errors.New("a template is required")))
		return
	}

	verdict := localValidation(log, body)
	if !s.result(validationResult(verdict)) {
		return
	}
	if !req.Remote || !verdict.Valid {
		return
	}

	callCtx, cancel := withTimeout(ctx, r.backendTimeout)
	remote := r.prov.ValidateRemote(callCtx, body)
	cancel()
	s.result(StepResult{
		Step:    StepValidateRemote,
		Success: remote.Valid,
		Message: remote.Message,
		Error:   remote.Error,
		Remote:  remote,
	})
}

func (r *Router) deploy(ctx context.Context, log logr.Logger, s *stream, req Request) {
	name := strings.TrimSpace(req.StackName)
	if name == "" {
		s.result(failure(StepDeploy, errors.New("a stack name is required")))
		return
	}
	body := requestTemplate(req)
	if body == "" {
		s.result(failure(StepDeploy, errors.New("a template is required")))
		return
	}

	verdict := localValidation(log, body)
	if !s.result(validationResult(verdict)) {
		return
	}
	if !verdict.Valid {
		s.result(StepResult{
			Step:      StepDeploy,
			Success:   false,
			StackName: name,
			Error:     "template failed validation, deployment not started",
			Errors:    verdict.Errors,
		})
		return
	}

	callCtx, cancel := withTimeout(ctx, r.backendTimeout)
	res, err := r.prov.Deploy(callCtx, stack.DeployInput{
		Name:       name,
		Template:   body,
		Parameters: req.Parameters,
	})
	cancel()
	if err != nil {
		log.Info("deployment not started", "stack", name, "error", err.Error())
		fail := failure(StepDeploy, err)
		fail.StackName = name
		s.result(fail)
		return
	}

	s.result(StepResult{
		Step:      StepDeploy,
		Success:   true,
		Message:   res.Message,
		StackName: res.Name,
		StackID:   res.ID,
		State:     res.State.String(),
		Phase:     string(res.State.Phase()),
	})
}

func (r *Router) status(ctx context.Context, s *stream, req Request) {
	name := strings.TrimSpace(req.StackName)
	if name == "" {
		s.result(failure(StepStatus, errors.New("a stack name is required")))
		return
	}

	callCtx, cancel := withTimeout(ctx, r.backendTimeout)
	snap, err := r.prov.GetStatus(callCtx, name)
	cancel()
	if err != nil {
		fail := failure(StepStatus, err)
		fail.StackName = name
		s.result(fail)
		return
	}

	s.result(StepResult{
		Step:      StepStatus,
		Success:   true,
		Message:   fmt.Sprintf("Stack %s is %s", snap.Name, snap.State),
		StackName: snap.Name,
		StackID:   snap.ID,
		State:     snap.State.String(),
		Phase:     string(snap.State.Phase()),
		Status:    snap,
	})
}

func (r *Router) events(ctx context.Context, s *stream, req Request) {
	name := strings.TrimSpace(req.StackName)
	if name == "" {
		s.result(failure(StepEvents, errors.New("a stack name is required")))
		return
	}

	callCtx, cancel := withTimeout(ctx, r.backendTimeout)
	events, err := r.prov.GetEvents(callCtx, name, req.Limit)
	cancel()
	if err != nil {
		fail := failure(StepEvents, err)
		fail.StackName = name
		s.result(fail)
		return
	}

	s.result(StepResult{
		Step:      StepEvents,
		Success:   true,
		Message:   fmt.Sprintf("%d events", len(events)),
		StackName: name,
		Events:    events,
	})
}

func (r *Router) assist(ctx context.Context, log logr.Logger, s *stream, req Request) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		s.result(failure(StepAssist, errors.New("a prompt is required")))
		return
	}

	callCtx, cancel := withTimeout(ctx, r.agentTimeout)
	defer cancel()

	ch, err := r.openAssist(callCtx, req)
	if err != nil {
		s.result(failure(StepAssist, err))
		return
	}

	timedOut := func() {
		if ctx.Err() == nil {
			s.result(failure(StepAssist, fmt.Errorf("assistant did not answer within %s", r.agentTimeout)))
		}
	}

	var relay relayed
	for {
		select {
		case <-callCtx.Done():
			timedOut()
			return
		case c, ok := <-ch:
			if !ok {
				if callCtx.Err() != nil {
					timedOut()
					return
				}
				s.result(relay.result())
				return
			}
			if c.Err != nil {
				log.Info("assistant stream failed", "error", c.Err.Error())
				s.result(failure(StepAssist, c.Err))
				return
			}
			relay.write(c.Text)
			if !s.text(c.Text) {
				return
			}
		}
	}
}

// openAssist forwards req to the assistant. Agents that take structured
// payloads get the request fields so the receiving role can pick its own
// action; others get the prompt.
func (r *Router) openAssist(ctx context.Context, req Request) (<-chan agent.Chunk, error) {
	if rs, ok := r.assistant.(agent.RequestStreamer); ok {
		return rs.StreamRequest(ctx, req.SessionID, Request{
			Prompt:      strings.TrimSpace(req.Prompt),
			Description: req.Description,
			StackName:   req.StackName,
			Template:    req.Template,
			Parameters:  req.Parameters,
			Limit:       req.Limit,
			Remote:      req.Remote,
		})
	}
	return r.assistant.Stream(ctx, req.SessionID, strings.TrimSpace(req.Prompt))
}

// relayed watches assistant output for step results. Results arrive as one
// JSON object per line; other text passes through unread.
type relayed struct {
	buf    strings.Builder
	failed *StepResult
}

func (r *relayed) write(text string) {
	r.buf.WriteString(text)
	data := r.buf.String()
	for {
		i := strings.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		r.line(data[:i])
		data = data[i+1:]
	}
	r.buf.Reset()
	r.buf.WriteString(data)
}

func (r *relayed) line(l string) {
	l = strings.TrimSpace(l)
	if r.failed != nil || !strings.HasPrefix(l, "{") {
		return
	}
	var res StepResult
	if err := json.Unmarshal([]byte(l), &res); err != nil || res.Step == "" {
		return
	}
	if !res.Success {
		r.failed = &res
	}
}

// result is the assist verdict: failed when any relayed step failed.
func (r *relayed) result() StepResult {
	r.line(r.buf.String())
	if r.failed == nil {
		return StepResult{Step: StepAssist, Success: true}
	}
	reason := r.failed.Error
	if reason == "" {
		reason = r.failed.Message
	}
	return StepResult{
		Step:      StepAssist,
		Success:   false,
		Error:     fmt.Sprintf("delegated step %q failed: %s", r.failed.Step, reason),
		Errors:    r.failed.Errors,
		StackName: r.failed.StackName,
	}
}

// requestTemplate returns the template of req, falling back to a template
// embedded in the prompt.
func requestTemplate(req Request) string {
	if body := strings.TrimSpace(req.Template); body != "" {
		return body
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return ""
	}
	return template.Extract(req.Prompt)
}

func localValidation(log logr.Logger, body string) template.Result {
	verdict := template.Validate(body)
	metrics.RecordValidation(verdict.Valid)
	for _, note := range verdict.Notes {
		log.Info(note)
	}
	return verdict
}

func validationResult(v template.Result) StepResult {
	res := StepResult{
		Step:       StepValidate,
		Success:    v.Valid,
		Message:    v.Message,
		Errors:     v.Errors,
		Notes:      v.Notes,
		Validation: &v,
	}
	if !v.Valid {
		res.Error = "template validation failed"
	}
	return res
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func isKnown(a Action) bool {
	for _, known := range Actions() {
		if known == a {
			return true
		}
	}
	return false
}

// stream is the single producer of a Run channel.
type stream struct {
	ctx     context.Context
	out     chan<- Fragment
	results int
	failed  bool
}

// succeeded reports whether at least one step ran and none failed.
func (s *stream) succeeded() bool {
	return s.results > 0 && !s.failed
}

func (s *stream) send(f Fragment) bool {
	select {
	case <-s.ctx.Done():
		return false
	case s.out <- f:
		return true
	}
}

func (s *stream) text(t string) bool {
	if t == "" {
		return true
	}
	return s.send(Fragment{Text: t})
}

func (s *stream) result(r StepResult) bool {
	s.results++
	if !r.Success {
		s.failed = true
	}
	return s.send(resultFragment(r))
}
