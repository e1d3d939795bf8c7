package router

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stackpilot/internal/agent"
	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/template"
)

const validTemplate = `AWSTemplateFormatVersion: '2010-09-09'
Resources:
  Bucket:
    Type: AWS::S3::Bucket
`

func drain(t *testing.T, ch <-chan Fragment) []Fragment {
	t.Helper()
	var out []Fragment
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-timeout:
			t.Fatal("stream did not complete")
			return nil
		}
	}
}

func results(frags []Fragment) []StepResult {
	var out []StepResult
	for _, f := range frags {
		if f.Result != nil {
			out = append(out, *f.Result)
		}
	}
	return out
}

func newRouter(backend *stack.MockBackend, opts ...Option) *Router {
	return New(stack.NewProvisioner(backend), opts...)
}

func TestRequest_ResolveAction(t *testing.T) {
	t.Parallel()

	fenced := "deploy this:\n```yaml\n" + validTemplate + "```"
	tests := []struct {
		name string
		role Role
		req  Request
		want Action
	}{
		{"explicit", RoleOrchestrator, Request{Action: ActionStatus}, ActionStatus},
		{"case insensitive", RoleOrchestrator, Request{Action: "Deploy"}, ActionDeploy},
		{"explicit wins over role default", RoleProvisioning, Request{Action: ActionEvents, StackName: "web"}, ActionEvents},
		{"orchestrator prompt", RoleOrchestrator, Request{Prompt: "what is running?"}, ActionAssist},
		{"onboarding prompt", RoleOnboarding, Request{Prompt: "a bucket and a queue"}, ActionGenerate},
		{"onboarding description", RoleOnboarding, Request{Description: "a bucket"}, ActionGenerate},
		{"provisioning template and stack", RoleProvisioning, Request{Template: validTemplate, StackName: "web"}, ActionDeploy},
		{"provisioning fenced prompt and stack", RoleProvisioning, Request{Prompt: fenced, StackName: "web"}, ActionDeploy},
		{"provisioning bare template prompt", RoleProvisioning, Request{Prompt: validTemplate}, ActionValidate},
		{"provisioning stack only", RoleProvisioning, Request{Prompt: "how is it going?", StackName: "web"}, ActionStatus},
		{"provisioning prose only", RoleProvisioning, Request{Prompt: "deploy something"}, ActionValidate},
		{"nothing", RoleOrchestrator, Request{}, ""},
		{"nothing provisioning", RoleProvisioning, Request{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.req.ResolveAction(tt.role))
		})
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleOrchestrator, r)

	r, err = ParseRole(" Provisioning ")
	require.NoError(t, err)
	assert.Equal(t, RoleProvisioning, r)

	_, err = ParseRole("janitor")
	assert.Error(t, err)
}

func TestRole_Allows(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleOnboarding.Allows(ActionGenerate))
	assert.False(t, RoleOnboarding.Allows(ActionDeploy))
	assert.True(t, RoleProvisioning.Allows(ActionDeploy))
	assert.False(t, RoleProvisioning.Allows(ActionGenerate))
	for _, a := range Actions() {
		assert.True(t, RoleOrchestrator.Allows(a), a)
	}
}

func TestRun_EveryFragmentIsTextAndResultsAreJSON(t *testing.T) {
	t.Parallel()

	r := newRouter(&stack.MockBackend{})
	frags := drain(t, r.Run(context.Background(), Request{Action: ActionValidate, Template: validTemplate}))

	require.Len(t, frags, 1)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(frags[0].Text), &decoded))
	assert.Equal(t, "validate", decoded["step"])
	assert.Equal(t, true, decoded["success"])
}

func TestRun_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Request
		success bool
		errs    []string
	}{
		{"valid", Request{Action: ActionValidate, Template: validTemplate}, true, nil},
		{"template in prompt", Request{Action: ActionValidate, Prompt: "check this:\n```yaml\n" + validTemplate + "```"}, true, nil},
		{"missing resources", Request{Action: ActionValidate, Template: "Outputs: {}"}, false, []string{template.MsgMissingResources}},
		{"no template", Request{Action: ActionValidate}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := results(drain(t, newRouter(&stack.MockBackend{}).Run(context.Background(), tt.req)))
			require.Len(t, res, 1)
			assert.Equal(t, StepValidate, res[0].Step)
			assert.Equal(t, tt.success, res[0].Success)
			if tt.errs != nil {
				assert.Equal(t, tt.errs, res[0].Errors)
			}
		})
	}
}

func TestRun_ValidateRemote(t *testing.T) {
	t.Parallel()

	backend := &stack.MockBackend{
		ValidateTemplateFunc: func(context.Context, string) (*stack.RemoteValidation, error) {
			return &stack.RemoteValidation{Description: "bucket"}, nil
		},
	}

	res := results(drain(t, newRouter(backend).Run(context.Background(), Request{Action: ActionValidate, Template: validTemplate, Remote: true})))
	require.Len(t, res, 2)
	assert.Equal(t, StepValidateRemote, res[1].Step)
	assert.True(t, res[1].Success)
	assert.Equal(t, "bucket", res[1].Remote.Description)

	backend = &stack.MockBackend{}
	res = results(drain(t, newRouter(backend).Run(context.Background(), Request{Action: ActionValidate, Template: "Outputs: {}", Remote: true})))
	require.Len(t, res, 1)
	assert.Zero(t, backend.Calls("ValidateTemplate"), "invalid templates are not sent for remote validation")
}

func TestRun_Deploy(t *testing.T) {
	t.Parallel()

	backend := &stack.MockBackend{
		SubmitFunc: func(context.Context, stack.SubmitInput) (*stack.SubmitOutput, error) {
			return &stack.SubmitOutput{ID: "arn:stack/demo/1", State: stack.StateCreateInProgress}, nil
		},
	}

	res := results(drain(t, newRouter(backend).Run(context.Background(), Request{
		Action:     ActionDeploy,
		StackName:  "demo",
		Template:   validTemplate,
		Parameters: map[string]string{"Env": "dev"},
	})))

	require.Len(t, res, 2)
	assert.Equal(t, StepValidate, res[0].Step)
	assert.True(t, res[0].Success)

	deploy := res[1]
	assert.Equal(t, StepDeploy, deploy.Step)
	assert.True(t, deploy.Success)
	assert.Equal(t, "arn:stack/demo/1", deploy.StackID)
	assert.Equal(t, "CREATE_IN_PROGRESS", deploy.State)
	assert.Equal(t, "Stack demo deployment initiated successfully", deploy.Message)

	assert.Equal(t, 1, backend.Calls("Submit"))
	assert.Zero(t, backend.Calls("Describe"), "deploy never polls")
}

func TestRun_DeployShortCircuitsOnInvalidTemplate(t *testing.T) {
	t.Parallel()

	backend := &stack.MockBackend{}
	res := results(drain(t, newRouter(backend).Run(context.Background(), Request{
		Action:    ActionDeploy,
		StackName: "demo",
		Template:  "Resources: {}",
	})))

	require.Len(t, res, 2)
	assert.False(t, res[0].Success)
	assert.False(t, res[1].Success)
	assert.Equal(t, []string{template.MsgResourcesEmpty}, res[1].Errors)
	assert.Zero(t, backend.Calls("Submit"))
}

func TestRun_DeployBackendFailure(t *testing.T) {
	t.Parallel()

	backend := &stack.MockBackend{
		SubmitFunc: func(context.Context, stack.SubmitInput) (*stack.SubmitOutput, error) {
			return nil, &stack.BackendError{Op: "CreateStack", Message: "Stack [demo] already exists"}
		},
	}

	res := results(drain(t, newRouter(backend).Run(context.Background(), Request{
		Action: ActionDeploy, StackName: "demo", Template: validTemplate,
	})))

	require.Len(t, res, 2)
	assert.False(t, res[1].Success)
	assert.Equal(t, "Stack [demo] already exists", res[1].Error)
}

func TestRun_StatusAndEvents(t *testing.T) {
	t.Parallel()

	backend := &stack.MockBackend{
		DescribeFunc: func(_ context.Context, name string) (*stack.Description, error) {
			if name == "ghost" {
				return nil, &stack.NotFoundError{Name: name}
			}
			return &stack.Description{Name: name, ID: "id-1", State: stack.StateRollbackComplete}, nil
		},
		DescribeEventsFunc: func(context.Context, string, int) ([]stack.Event, error) {
			return []stack.Event{{LogicalID: "Bucket", Status: "CREATE_FAILED"}}, nil
		},
	}
	r := newRouter(backend)

	res := results(drain(t, r.Run(context.Background(), Request{Action: ActionStatus, StackName: "demo"})))
	require.Len(t, res, 1)
	assert.True(t, res[0].Success)
	assert.Equal(t, "ROLLBACK_COMPLETE", res[0].State)
	assert.Equal(t, "rolled-back", res[0].Phase)
	assert.Equal(t, "id-1", res[0].StackID)

	res = results(drain(t, r.Run(context.Background(), Request{Action: ActionStatus, StackName: "ghost"})))
	require.Len(t, res, 1)
	assert.False(t, res[0].Success)
	assert.Equal(t, "Stack with id ghost does not exist", res[0].Error)

	res = results(drain(t, r.Run(context.Background(), Request{Action: ActionEvents, StackName: "demo", Limit: 5})))
	require.Len(t, res, 1)
	assert.True(t, res[0].Success)
	assert.Len(t, res[0].Events, 1)
}

func TestRun_Generate(t *testing.T) {
	t.Parallel()

	gen := agent.Static{"Here you go:\n```yaml\n", "Resources:\n  Q:\n    Type: AWS::SQS::Queue\n", "```\n"}
	frags := drain(t, newRouter(&stack.MockBackend{}, WithGenerator(gen)).Run(context.Background(), Request{
		Action:      ActionGenerate,
		Description: "a queue",
	}))

	require.Len(t, frags, 2)
	assert.Nil(t, frags[0].Result)
	assert.True(t, strings.HasPrefix(frags[0].Text, "```yaml\nResources:"))
	require.NotNil(t, frags[1].Result)
	assert.True(t, frags[1].Result.Success)
	assert.Equal(t, []string{template.NoteMissingFormatVersion}, frags[1].Result.Notes)
}

func TestRun_GenerateWithoutRuntime(t *testing.T) {
	t.Parallel()

	res := results(drain(t, newRouter(&stack.MockBackend{}).Run(context.Background(), Request{
		Action:      ActionGenerate,
		Description: "a queue",
	})))

	require.Len(t, res, 1)
	assert.False(t, res[0].Success)
	assert.Equal(t, "ONBOARDING_AGENT_ARN environment variable not set", res[0].Error)
}

type failingAgent struct{}

func (failingAgent) Stream(ctx context.Context, _, _ string) (<-chan agent.Chunk, error) {
	ch := make(chan agent.Chunk, 2)
	ch <- agent.Chunk{Text: "thinking..."}
	ch <- agent.Chunk{Err: errors.New("runtime crashed")}
	close(ch)
	return ch, nil
}

func TestRun_Assist(t *testing.T) {
	t.Parallel()

	frags := drain(t, newRouter(&stack.MockBackend{}, WithAssistant(agent.Static{"All ", "good."})).Run(context.Background(), Request{Prompt: "how are my stacks?"}))
	require.Len(t, frags, 3)
	assert.Equal(t, "All ", frags[0].Text)
	assert.Equal(t, "good.", frags[1].Text)
	assert.True(t, frags[2].Result.Success)

	frags = drain(t, newRouter(&stack.MockBackend{}, WithAssistant(failingAgent{})).Run(context.Background(), Request{Prompt: "hi"}))
	require.Len(t, frags, 2)
	assert.Equal(t, "runtime crashed", frags[1].Result.Error)
}

// structuredAgent records the payload it was sent and replies with chunks.
type structuredAgent struct {
	payload any
	chunks  agent.Static
}

func (a *structuredAgent) Stream(context.Context, string, string) (<-chan agent.Chunk, error) {
	return nil, errors.New("prompt path must not be used")
}

func (a *structuredAgent) StreamRequest(ctx context.Context, sessionID string, payload any) (<-chan agent.Chunk, error) {
	a.payload = payload
	return a.chunks.Stream(ctx, sessionID, "")
}

func TestRun_AssistForwardsStructuredRequest(t *testing.T) {
	t.Parallel()

	assistant := &structuredAgent{chunks: agent.Static{`{"step":"deploy","success":true}` + "\n"}}
	r := newRouter(&stack.MockBackend{}, WithAssistant(assistant))

	res := results(drain(t, r.Run(context.Background(), Request{
		SessionID: "s-1",
		Prompt:    " ship it ",
		StackName: "web",
		Template:  validTemplate,
	})))

	require.Len(t, res, 1)
	assert.True(t, res[0].Success)
	assert.Equal(t, Request{Prompt: "ship it", StackName: "web", Template: validTemplate}, assistant.payload)
}

func TestRun_AssistReportsRelayedFailure(t *testing.T) {
	t.Parallel()

	failed := `{"step":"deploy","success":false,"error":"Stack web already exists","stack_name":"web"}`
	tests := []struct {
		name   string
		chunks agent.Static
	}{
		{"whole line", agent.Static{`{"step":"validate","success":true}` + "\n", failed + "\n"}},
		{"split across chunks", agent.Static{failed[:20], failed[20:] + "\n"}},
		{"no trailing newline", agent.Static{"working on it\n", failed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			frags := drain(t, newRouter(&stack.MockBackend{}, WithAssistant(tt.chunks)).Run(context.Background(), Request{Prompt: "deploy web"}))

			res := results(frags)
			require.Len(t, res, 1)
			assert.Equal(t, StepAssist, res[0].Step)
			assert.False(t, res[0].Success)
			assert.Equal(t, `delegated step "deploy" failed: Stack web already exists`, res[0].Error)
			assert.Equal(t, "web", res[0].StackName)
		})
	}
}

func TestRun_AssistIgnoresNonResultJSON(t *testing.T) {
	t.Parallel()

	chunks := agent.Static{`{"note":"not a step","success":false}` + "\n", "plain text\n"}
	res := results(drain(t, newRouter(&stack.MockBackend{}, WithAssistant(chunks)).Run(context.Background(), Request{Prompt: "hi"})))

	require.Len(t, res, 1)
	assert.True(t, res[0].Success)
}

// stallingAgent never answers until its context ends.
type stallingAgent struct{}

func (stallingAgent) Stream(ctx context.Context, _, _ string) (<-chan agent.Chunk, error) {
	ch := make(chan agent.Chunk)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func TestRun_AgentTimeout(t *testing.T) {
	t.Parallel()

	r := newRouter(&stack.MockBackend{}, WithAssistant(stallingAgent{}), WithGenerator(stallingAgent{}), WithTimeouts(0, 20*time.Millisecond))

	res := results(drain(t, r.Run(context.Background(), Request{Prompt: "hello"})))
	require.Len(t, res, 1)
	assert.False(t, res[0].Success)
	assert.Contains(t, res[0].Error, "did not answer within 20ms")

	res = results(drain(t, r.Run(context.Background(), Request{Action: ActionGenerate, Description: "a bucket"})))
	require.Len(t, res, 1)
	assert.False(t, res[0].Success)
}

func TestRun_BackendTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	backend := &stack.MockBackend{
		DescribeFunc: func(ctx context.Context, name string) (*stack.Description, error) {
			deadline, _ = ctx.Deadline()
			return &stack.Description{Name: name, State: stack.StateCreateComplete}, nil
		},
	}
	start := time.Now()
	r := newRouter(backend, WithTimeouts(time.Minute, 0))

	res := results(drain(t, r.Run(context.Background(), Request{Action: ActionStatus, StackName: "web"})))
	require.Len(t, res, 1)
	assert.True(t, res[0].Success)
	assert.WithinDuration(t, start.Add(time.Minute), deadline, 5*time.Second)

	deadline = time.Time{}
	res = results(drain(t, newRouter(backend).Run(context.Background(), Request{Action: ActionStatus, StackName: "web"})))
	require.Len(t, res, 1)
	assert.True(t, deadline.IsZero())
}

func TestRun_RoleRestrictions(t *testing.T) {
	t.Parallel()

	backend := &stack.MockBackend{}
	r := newRouter(backend, WithRole(RoleOnboarding))

	res := results(drain(t, r.Run(context.Background(), Request{Action: ActionDeploy, StackName: "demo", Template: validTemplate})))
	require.Len(t, res, 1)
	assert.Equal(t, StepRoute, res[0].Step)
	assert.Contains(t, res[0].Error, "not available in the onboarding role")
	assert.Zero(t, backend.Calls("Submit"))
}

func TestRun_UnknownAndEmptyActions(t *testing.T) {
	t.Parallel()

	r := newRouter(&stack.MockBackend{})

	res := results(drain(t, r.Run(context.Background(), Request{Action: "destroy"})))
	require.Len(t, res, 1)
	assert.Equal(t, `unknown action "destroy"`, res[0].Error)

	res = results(drain(t, r.Run(context.Background(), Request{})))
	require.Len(t, res, 1)
	assert.False(t, res[0].Success)
}

func TestRun_CancelClosesStream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	many := make(agent.Static, 1000)
	for i := range many {
		many[i] = "x"
	}
	ch := newRouter(&stack.MockBackend{}, WithAssistant(many)).Run(ctx, Request{Prompt: "talk"})

	<-ch
	cancel()

	n := len(drain(t, ch))
	assert.Less(t, n, len(many))
}
