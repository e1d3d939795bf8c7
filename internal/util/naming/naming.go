package naming

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TemplatePrefix is the key prefix for staged templates.
const TemplatePrefix = "templates"

// TemplateObject returns the object key a stack's template is staged under.
func TemplateObject(stackName string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.template", TemplatePrefix, stackName, at.UTC().Format("20060102T150405Z"))
}

// SessionID returns a new runtime session id. Agent runtimes require at
// least 33 characters; a UUID string has 36.
func SessionID() string {
	return uuid.NewString()
}

// RuntimeName extracts the runtime name from an agent runtime ARN such as
// arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/Onboarding-abc.
// Anything that is not a runtime ARN is returned unchanged.
func RuntimeName(arn string) string {
	if !strings.HasPrefix(arn, "arn:") {
		return arn
	}
	if idx := strings.LastIndex(arn, ":runtime/"); idx >= 0 {
		return arn[idx+len(":runtime/"):]
	}
	return arn
}
