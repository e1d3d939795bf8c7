package tags

import "sort"

// Tag keys.
const (
	KeyManagedBy  = "ManagedBy"
	KeyAgent      = "Agent"
	KeyProject    = "Project"
	KeyAutoDelete = "auto-delete"
)

// Tag values.
const (
	ManagedByMWC       = "MWCAgent"
	ManagedByAgentCore = "AgentCore"

	AgentProvisioning = "ProvisioningAgent"

	ProjectMWCDemo  = "MWC-Demo"
	AutoDeleteNever = "never"
)

// Pair is a single key/value tag.
type Pair struct {
	Key   string
	Value string
}

// Builder provides a fluent interface for building tag sets.
type Builder struct {
	tags map[string]string
}

// NewBuilder creates an empty tag builder.
func NewBuilder() *Builder {
	return &Builder{tags: make(map[string]string)}
}

// With sets a tag.
func (b *Builder) With(key, value string) *Builder {
	b.tags[key] = value
	return b
}

// WithManagedBy sets who manages the tagged resource.
func (b *Builder) WithManagedBy(manager string) *Builder {
	return b.With(KeyManagedBy, manager)
}

// WithAgent records which agent created the resource.
func (b *Builder) WithAgent(agent string) *Builder {
	return b.With(KeyAgent, agent)
}

// Merge adds all tags from the provided map, overriding existing keys.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		b.tags[k] = v
	}
	return b
}

// Build returns a copy of the tag map.
func (b *Builder) Build() map[string]string {
	result := make(map[string]string, len(b.tags))
	for k, v := range b.tags {
		result[k] = v
	}
	return result
}

// Pairs returns the tags sorted by key.
func (b *Builder) Pairs() []Pair {
	pairs := make([]Pair, 0, len(b.tags))
	for k, v := range b.tags {
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs
}

// StackProvenance returns the fixed tags applied to every stack submission.
func StackProvenance() []Pair {
	return NewBuilder().
		WithManagedBy(ManagedByMWC).
		WithAgent(AgentProvisioning).
		Pairs()
}

// RuntimeRetention returns the tags that keep agent runtimes out of
// automated cleanup.
func RuntimeRetention() map[string]string {
	return NewBuilder().
		With(KeyAutoDelete, AutoDeleteNever).
		With(KeyProject, ProjectMWCDemo).
		WithManagedBy(ManagedByAgentCore).
		Build()
}
