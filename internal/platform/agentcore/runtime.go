package agentcore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	bac "github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"

	"github.com/imamik/stackpilot/internal/agent"
	"github.com/imamik/stackpilot/internal/metrics"
	"github.com/imamik/stackpilot/internal/util/naming"
)

const maxLineSize = 1024 * 1024

// Runtime is one deployed agent runtime.
type Runtime struct {
	client *Client
	arn    string
	name   string
}

var (
	_ agent.Agent           = (*Runtime)(nil)
	_ agent.RequestStreamer = (*Runtime)(nil)
)

// Runtime returns a handle for the runtime identified by arn.
func (c *Client) Runtime(arn string) *Runtime {
	return &Runtime{client: c, arn: arn, name: naming.RuntimeName(arn)}
}

// ARN returns the runtime ARN.
func (r *Runtime) ARN() string {
	return r.arn
}

// Stream invokes the runtime with prompt. An empty sessionID gets a fresh
// one.
func (r *Runtime) Stream(ctx context.Context, sessionID, prompt string) (<-chan agent.Chunk, error) {
	return r.StreamRequest(ctx, sessionID, invocationPayload{Prompt: prompt})
}

// StreamRequest invokes the runtime with v encoded as the JSON payload.
func (r *Runtime) StreamRequest(ctx context.Context, sessionID string, v any) (<-chan agent.Chunk, error) {
	payload, err := encodePayload(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	if sessionID == "" {
		sessionID = naming.SessionID()
	}

	log := r.client.log.WithValues("runtime", r.name, "session", sessionID)
	out, err := r.client.invoke.InvokeAgentRuntime(ctx, &bac.InvokeAgentRuntimeInput{
		AgentRuntimeArn:  aws.String(r.arn),
		Qualifier:        aws.String(DefaultQualifier),
		RuntimeSessionId: aws.String(sessionID),
		ContentType:      aws.String("application/json"),
		Accept:           aws.String("text/event-stream, application/json"),
		Payload:          payload,
	})
	metrics.RecordAgentInvocation(r.name, err)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke agent runtime %s: %w", r.name, err)
	}
	log.V(1).Info("agent runtime invoked", "contentType", aws.ToString(out.ContentType))

	ch := make(chan agent.Chunk)
	go func() {
		defer close(ch)
		defer out.Response.Close()

		emit := func(c agent.Chunk) bool {
			select {
			case <-ctx.Done():
				return false
			case ch <- c:
				return true
			}
		}

		var readErr error
		if strings.HasPrefix(aws.ToString(out.ContentType), "text/event-stream") {
			readErr = readEventStream(out.Response, func(text string) bool {
				return emit(agent.Chunk{Text: text})
			})
		} else {
			var body string
			body, readErr = readBody(out.Response)
			if readErr == nil && body != "" {
				emit(agent.Chunk{Text: body})
			}
		}

		if readErr != nil && ctx.Err() == nil {
			log.Info("agent response stream failed", "error", readErr.Error())
			emit(agent.Chunk{Err: fmt.Errorf("failed to read agent response: %w", readErr)})
		}
	}()
	return ch, nil
}

// readEventStream calls emit for every data line until the stream ends or
// emit returns false.
func readEventStream(r io.Reader, emit func(string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimPrefix(data, " ")
		if !emit(decodeText(data)) {
			return nil
		}
	}
	return scanner.Err()
}

func readBody(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return decodeText(strings.TrimSpace(string(b))), nil
}

// decodeText unquotes JSON-encoded strings and returns anything else as is.
func decodeText(s string) string {
	if strings.HasPrefix(s, `"`) {
		var out string
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return out
		}
	}
	return s
}
