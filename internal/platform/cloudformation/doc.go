// Package cloudformation binds stack.Backend to AWS CloudFormation.
//
// The client only interprets "stack does not exist" responses. Every other
// API error is passed through as a *stack.BackendError carrying the service
// message. Transport failures that happen before a request is written (DNS
// resolution, dial, connection refused) are marked retryable; nothing else is.
//
// Template bodies above MaxTemplateBodySize are staged through a
// TemplateStager and submitted by URL.
package cloudformation
