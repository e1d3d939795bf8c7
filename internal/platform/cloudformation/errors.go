package cloudformation

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"

	"github.com/imamik/stackpilot/internal/stack"
)

// translateError maps SDK errors onto the stack error taxonomy.
func translateError(op, name string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if isStackNotFound(apiErr) {
			return &stack.NotFoundError{Name: name, Message: apiErr.ErrorMessage()}
		}
		msg := apiErr.ErrorMessage()
		if msg == "" {
			msg = err.Error()
		}
		return &stack.BackendError{Op: op, Code: apiErr.ErrorCode(), Message: msg, Err: err}
	}

	return &stack.BackendError{
		Op:        op,
		Message:   err.Error(),
		Retryable: isPreAcknowledgment(err),
		Err:       err,
	}
}

// isStackNotFound checks for the ValidationError CloudFormation returns for
// unknown stack names.
func isStackNotFound(apiErr smithy.APIError) bool {
	return apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}

// isPreAcknowledgment reports whether err proves the request was never
// written to the service.
func isPreAcknowledgment(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED)
}
