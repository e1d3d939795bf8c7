// Package agentcore invokes and tags Bedrock AgentCore agent runtimes.
//
// Invocation responses are either a server-sent event stream, where every
// "data:" line holds a JSON-encoded string or raw text, or a single body.
// Both are surfaced as agent.Chunk values.
package agentcore
