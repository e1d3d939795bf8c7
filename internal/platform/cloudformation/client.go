package cloudformation

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cfn "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/go-logr/logr"

	"github.com/imamik/stackpilot/internal/metrics"
	"github.com/imamik/stackpilot/internal/platform/awsconfig"
	"github.com/imamik/stackpilot/internal/stack"
)

// MaxTemplateBodySize is the largest template CloudFormation accepts inline.
const MaxTemplateBodySize = 51200

// API is the subset of the CloudFormation client used here.
type API interface {
	CreateStack(ctx context.Context, params *cfn.CreateStackInput, optFns ...func(*cfn.Options)) (*cfn.CreateStackOutput, error)
	DescribeStacks(ctx context.Context, params *cfn.DescribeStacksInput, optFns ...func(*cfn.Options)) (*cfn.DescribeStacksOutput, error)
	DescribeStackResources(ctx context.Context, params *cfn.DescribeStackResourcesInput, optFns ...func(*cfn.Options)) (*cfn.DescribeStackResourcesOutput, error)
	DescribeStackEvents(ctx context.Context, params *cfn.DescribeStackEventsInput, optFns ...func(*cfn.Options)) (*cfn.DescribeStackEventsOutput, error)
	ValidateTemplate(ctx context.Context, params *cfn.ValidateTemplateInput, optFns ...func(*cfn.Options)) (*cfn.ValidateTemplateOutput, error)
}

// TemplateStager uploads a template body and returns a URL CloudFormation
// can read it from.
type TemplateStager interface {
	StageTemplate(ctx context.Context, stackName, body string) (string, error)
}

// Client implements stack.Backend.
type Client struct {
	api    API
	stager TemplateStager
	log    logr.Logger
}

var _ stack.Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithAPI replaces the SDK client, mainly for tests.
func WithAPI(api API) Option {
	return func(c *Client) {
		c.api = api
	}
}

// WithStager enables submission of oversized templates through s.
func WithStager(s TemplateStager) Option {
	return func(c *Client) {
		c.stager = s
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a CloudFormation backend. Without WithAPI the SDK client
// is built from settings.
func NewClient(ctx context.Context, settings awsconfig.Settings, opts ...Option) (*Client, error) {
	c := &Client{log: logr.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	if c.api == nil {
		cfg, err := awsconfig.Load(ctx, settings)
		if err != nil {
			return nil, err
		}
		c.api = cfn.NewFromConfig(cfg)
	}
	return c, nil
}

// Submit creates the stack. SDK-level retries are disabled so a request that
// may have reached the service is never sent twice.
func (c *Client) Submit(ctx context.Context, in stack.SubmitInput) (*stack.SubmitOutput, error) {
	input := &cfn.CreateStackInput{
		StackName:    aws.String(in.Name),
		Parameters:   make([]types.Parameter, 0, len(in.Parameters)),
		Capabilities: make([]types.Capability, 0, len(in.Capabilities)),
		OnFailure:    types.OnFailure(in.OnFailure),
		Tags:         make([]types.Tag, 0, len(in.Tags)),
	}
	for _, p := range in.Parameters {
		input.Parameters = append(input.Parameters, types.Parameter{
			ParameterKey:   aws.String(p.Key),
			ParameterValue: aws.String(p.Value),
		})
	}
	for _, capability := range in.Capabilities {
		input.Capabilities = append(input.Capabilities, types.Capability(capability))
	}
	for _, t := range in.Tags {
		input.Tags = append(input.Tags, types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}

	body, url, err := c.templateSource(ctx, in.Name, in.TemplateBody)
	if err != nil {
		return nil, err
	}
	input.TemplateBody, input.TemplateURL = body, url

	start := time.Now()
	out, err := c.api.CreateStack(ctx, input, func(o *cfn.Options) {
		o.Retryer = aws.NopRetryer{}
	})
	metrics.RecordBackendCall("CreateStack", time.Since(start), err)
	if err != nil {
		return nil, translateError("CreateStack", in.Name, err)
	}

	c.log.V(1).Info("CreateStack accepted", "stack", in.Name, "id", aws.ToString(out.StackId))
	return &stack.SubmitOutput{
		ID:    aws.ToString(out.StackId),
		State: stack.StateCreateInProgress,
	}, nil
}

// Describe reads the stack summary and outputs.
func (c *Client) Describe(ctx context.Context, name string) (*stack.Description, error) {
	start := time.Now()
	out, err := c.api.DescribeStacks(ctx, &cfn.DescribeStacksInput{StackName: aws.String(name)})
	metrics.RecordBackendCall("DescribeStacks", time.Since(start), err)
	if err != nil {
		return nil, translateError("DescribeStacks", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, &stack.NotFoundError{Name: name}
	}

	s := out.Stacks[0]
	desc := &stack.Description{
		Name:      aws.ToString(s.StackName),
		ID:        aws.ToString(s.StackId),
		State:     stack.State(s.StackStatus),
		Reason:    aws.ToString(s.StackStatusReason),
		CreatedAt: aws.ToTime(s.CreationTime),
		UpdatedAt: s.LastUpdatedTime,
		Outputs:   make(map[string]string, len(s.Outputs)),
	}
	for _, o := range s.Outputs {
		desc.Outputs[aws.ToString(o.OutputKey)] = valueOrNA(o.OutputValue)
	}
	return desc, nil
}

// DescribeResources lists the tracked state of every declared resource.
func (c *Client) DescribeResources(ctx context.Context, name string) ([]stack.ResourceRecord, error) {
	start := time.Now()
	out, err := c.api.DescribeStackResources(ctx, &cfn.DescribeStackResourcesInput{StackName: aws.String(name)})
	metrics.RecordBackendCall("DescribeStackResources", time.Since(start), err)
	if err != nil {
		return nil, translateError("DescribeStackResources", name, err)
	}

	records := make([]stack.ResourceRecord, 0, len(out.StackResources))
	for _, r := range out.StackResources {
		records = append(records, stack.ResourceRecord{
			LogicalID:  aws.ToString(r.LogicalResourceId),
			PhysicalID: aws.ToString(r.PhysicalResourceId),
			Type:       aws.ToString(r.ResourceType),
			Status:     string(r.ResourceStatus),
			Reason:     aws.ToString(r.ResourceStatusReason),
		})
	}
	return records, nil
}

// DescribeEvents pages through events, newest first, until at least max
// have been read or the history is exhausted.
func (c *Client) DescribeEvents(ctx context.Context, name string, max int) ([]stack.Event, error) {
	paginator := cfn.NewDescribeStackEventsPaginator(c.api, &cfn.DescribeStackEventsInput{
		StackName: aws.String(name),
	})

	var events []stack.Event
	for paginator.HasMorePages() && (max <= 0 || len(events) < max) {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		metrics.RecordBackendCall("DescribeStackEvents", time.Since(start), err)
		if err != nil {
			return nil, translateError("DescribeStackEvents", name, err)
		}
		for _, e := range page.StackEvents {
			events = append(events, stack.Event{
				Timestamp:    aws.ToTime(e.Timestamp),
				ResourceType: aws.ToString(e.ResourceType),
				LogicalID:    aws.ToString(e.LogicalResourceId),
				Status:       string(e.ResourceStatus),
				Reason:       aws.ToString(e.ResourceStatusReason),
			})
		}
	}
	return events, nil
}

// ValidateTemplate asks CloudFormation to validate body.
func (c *Client) ValidateTemplate(ctx context.Context, body string) (*stack.RemoteValidation, error) {
	tmplBody, url, err := c.templateSource(ctx, "validate", body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := c.api.ValidateTemplate(ctx, &cfn.ValidateTemplateInput{
		TemplateBody: tmplBody,
		TemplateURL:  url,
	})
	metrics.RecordBackendCall("ValidateTemplate", time.Since(start), err)
	if err != nil {
		return nil, translateError("ValidateTemplate", "", err)
	}

	res := &stack.RemoteValidation{
		Description:        aws.ToString(out.Description),
		CapabilitiesReason: aws.ToString(out.CapabilitiesReason),
	}
	for _, p := range out.Parameters {
		res.Parameters = append(res.Parameters, aws.ToString(p.ParameterKey))
	}
	for _, capability := range out.Capabilities {
		res.Capabilities = append(res.Capabilities, string(capability))
	}
	return res, nil
}

// templateSource returns either an inline body or a staged URL.
func (c *Client) templateSource(ctx context.Context, stackName, body string) (*string, *string, error) {
	if len(body) <= MaxTemplateBodySize {
		return aws.String(body), nil, nil
	}
	if c.stager == nil {
		return nil, nil, &stack.BackendError{
			Op: "StageTemplate",
			Message: fmt.Sprintf("template is %d bytes, above the %d byte inline limit, and no template bucket is configured",
				len(body), MaxTemplateBodySize),
		}
	}

	url, err := c.stager.StageTemplate(ctx, stackName, body)
	if err != nil {
		be := translateError("StageTemplate", stackName, err)
		if b, ok := be.(*stack.BackendError); ok {
			b.Message = "failed to stage template: " + b.Message
		}
		return nil, nil, be
	}
	c.log.V(1).Info("template staged", "stack", stackName, "url", url, "bytes", len(body))
	return nil, aws.String(url), nil
}

func valueOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}
