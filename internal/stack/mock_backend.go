package stack

import (
	"context"
	"sync"
	"time"
)

// MockBackend is a Backend whose behavior is set per method. Unset methods
// return a plausible default. Calls are recorded for assertions.
type MockBackend struct {
	SubmitFunc            func(ctx context.Context, in SubmitInput) (*SubmitOutput, error)
	DescribeFunc          func(ctx context.Context, name string) (*Description, error)
	DescribeResourcesFunc func(ctx context.Context, name string) ([]ResourceRecord, error)
	DescribeEventsFunc    func(ctx context.Context, name string, max int) ([]Event, error)
	ValidateTemplateFunc  func(ctx context.Context, body string) (*RemoteValidation, error)

	mu      sync.Mutex
	submits []SubmitInput
	calls   map[string]int
}

var _ Backend = (*MockBackend)(nil)

// Submit mocks stack creation.
func (m *MockBackend) Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	m.record("Submit")
	m.mu.Lock()
	m.submits = append(m.submits, in)
	m.mu.Unlock()
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, in)
	}
	return &SubmitOutput{ID: "arn:aws:cloudformation:us-east-1:123456789012:stack/" + in.Name + "/mock", State: StateCreateInProgress}, nil
}

// Describe mocks reading the stack.
func (m *MockBackend) Describe(ctx context.Context, name string) (*Description, error) {
	m.record("Describe")
	if m.DescribeFunc != nil {
		return m.DescribeFunc(ctx, name)
	}
	return &Description{Name: name, State: StateCreateComplete, CreatedAt: time.Unix(0, 0).UTC()}, nil
}

// DescribeResources mocks listing stack resources.
func (m *MockBackend) DescribeResources(ctx context.Context, name string) ([]ResourceRecord, error) {
	m.record("DescribeResources")
	if m.DescribeResourcesFunc != nil {
		return m.DescribeResourcesFunc(ctx, name)
	}
	return nil, nil
}

// DescribeEvents mocks listing stack events.
func (m *MockBackend) DescribeEvents(ctx context.Context, name string, max int) ([]Event, error) {
	m.record("DescribeEvents")
	if m.DescribeEventsFunc != nil {
		return m.DescribeEventsFunc(ctx, name, max)
	}
	return nil, nil
}

// ValidateTemplate mocks remote template validation.
func (m *MockBackend) ValidateTemplate(ctx context.Context, body string) (*RemoteValidation, error) {
	m.record("ValidateTemplate")
	if m.ValidateTemplateFunc != nil {
		return m.ValidateTemplateFunc(ctx, body)
	}
	return &RemoteValidation{}, nil
}

// Calls returns how many times method was invoked.
func (m *MockBackend) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Submissions returns every SubmitInput received, in order.
func (m *MockBackend) Submissions() []SubmitInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SubmitInput(nil), m.submits...)
}

func (m *MockBackend) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}
