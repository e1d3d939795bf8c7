package agentcore

import (
	"context"
	"encoding/json"
	"errors"

	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"

	"github.com/imamik/stackpilot/internal/platform/awsconfig"
)

// DefaultQualifier is the endpoint qualifier used for every invocation.
const DefaultQualifier = "DEFAULT"

// InvokeAPI is the subset of the AgentCore data plane client used here.
type InvokeAPI interface {
	InvokeAgentRuntime(ctx context.Context, params *bac.InvokeAgentRuntimeInput, optFns ...func(*bac.Options)) (*bac.InvokeAgentRuntimeOutput, error)
}

// ControlAPI is the subset of the AgentCore control plane client used here.
type ControlAPI interface {
	TagResource(ctx context.Context, params *bedrockagentcorecontrol.TagResourceInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.TagResourceOutput, error)
	ListTagsForResource(ctx context.Context, params *bedrockagentcorecontrol.ListTagsForResourceInput, optFns ...func(*bedrockagentcorecontrol.Options)) (*bedrockagentcorecontrol.ListTagsForResourceOutput, error)
}

// Client talks to both AgentCore planes.
type Client struct {
	invoke  InvokeAPI
	control ControlAPI
	log     logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithInvokeAPI replaces the data plane client.
func WithInvokeAPI(api InvokeAPI) Option {
	return func(c *Client) {
		c.invoke = api
	}
}

// WithControlAPI replaces the control plane client.
func WithControlAPI(api ControlAPI) Option {
	return func(c *Client) {
		c.control = api
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Client. SDK clients not supplied through options are
// built from settings.
func NewClient(ctx context.Context, settings awsconfig.Settings, opts ...Option) (*Client, error) {
	c := &Client{log: logr.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	if c.invoke == nil || c.control == nil {
		cfg, err := awsconfig.Load(ctx, settings)
		if err != nil {
			return nil, err
		}
		if c.invoke == nil {
			c.invoke = bac.NewFromConfig(cfg)
		}
		if c.control == nil {
			c.control = bedrockagentcorecontrol.NewFromConfig(cfg)
		}
	}
	return c, nil
}

// IsNotFound reports whether err means the runtime does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ResourceNotFoundException"
	}
	return false
}

// invocationPayload is the body of a prompt-only invocation.
type invocationPayload struct {
	Prompt string `json:"prompt"`
}

func encodePayload(v any) ([]byte, error) {
	return json.Marshal(v)
}
