package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known top-level sections.
const (
	KeyResources     = "Resources"
	KeyFormatVersion = "AWSTemplateFormatVersion"
	KeyDescription   = "Description"
	KeyParameters    = "Parameters"
	KeyOutputs       = "Outputs"

	// RecommendedFormatVersion is the only published template format version.
	RecommendedFormatVersion = "2010-09-09"
)

// Structural violation messages.
const (
	MsgNotMapping          = "Template must be a dictionary/object"
	MsgMissingResources    = "Template must contain 'Resources' section"
	MsgResourcesNotMapping = "'Resources' must be a dictionary"
	MsgResourcesEmpty      = "'Resources' section cannot be empty"
)

var errMultiDocument = errors.New("expected a single document in the stream")

// Format identifies the serialization a template was parsed from.
type Format string

const (
	FormatYAML Format = "YAML"
	FormatJSON Format = "JSON"
)

// Template is a parsed, structurally valid template. It is never mutated
// after Parse returns it.
type Template struct {
	Format        Format
	FormatVersion string
	Description   string

	resourceNames  []string
	resourceTypes  map[string]string
	parameterNames []string
	outputNames    []string
}

// ResourceNames returns the logical ids of the declared resources in
// declaration order.
func (t *Template) ResourceNames() []string {
	return append([]string(nil), t.resourceNames...)
}

// Resource is a declared resource and its type.
type Resource struct {
	LogicalID string `json:"logical_id"`
	Type      string `json:"type,omitempty"`
}

// Summary lists what a template declares.
type Summary struct {
	Format     Format     `json:"format"`
	Resources  []Resource `json:"resources"`
	Parameters []string   `json:"parameters,omitempty"`
	Outputs    []string   `json:"outputs,omitempty"`
}

// Summary returns the declared resources, parameters and outputs. A
// resource without a Type has an empty Type.
func (t *Template) Summary() *Summary {
	s := &Summary{
		Format:     t.Format,
		Resources:  make([]Resource, 0, len(t.resourceNames)),
		Parameters: append([]string(nil), t.parameterNames...),
		Outputs:    append([]string(nil), t.outputNames...),
	}
	for _, name := range t.resourceNames {
		s.Resources = append(s.Resources, Resource{LogicalID: name, Type: t.resourceTypes[name]})
	}
	return s
}

// HasFormatVersion reports whether the template declares AWSTemplateFormatVersion.
func (t *Template) HasFormatVersion() bool {
	return t.FormatVersion != ""
}

// ParseError is returned when a template is not valid structured data in
// either supported format. Format is the last format attempted.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Invalid %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StructuralError lists every required-shape violation found in a template.
type StructuralError struct {
	Violations []string
}

func (e *StructuralError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// Parse parses raw as YAML, falling back to JSON, and checks the required
// document shape. It returns a *ParseError or a *StructuralError on failure.
func Parse(raw string) (*Template, error) {
	root, format, err := decode(raw)
	if err != nil {
		return nil, err
	}

	if violations := check(root); len(violations) > 0 {
		return nil, &StructuralError{Violations: violations}
	}

	return build(root, format), nil
}

// decode returns the top-level value node of raw. A stream with more than
// one YAML document is not a template and falls through to JSON.
func decode(raw string) (*yaml.Node, Format, error) {
	if doc, err := decodeYAML(raw); err == nil {
		return valueNode(doc), FormatYAML, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, FormatJSON, &ParseError{Format: FormatJSON, Err: err}
	}

	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, FormatJSON, &ParseError{Format: FormatJSON, Err: err}
	}
	return valueNode(&node), FormatJSON, nil
}

func decodeYAML(raw string) (*yaml.Node, error) {
	dec := yaml.NewDecoder(strings.NewReader(raw))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, err
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errMultiDocument
		}
		return nil, err
	}
	return &doc, nil
}

// valueNode unwraps document and alias nodes. An empty document yields nil.
func valueNode(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		case 0:
			return nil
		default:
			return n
		}
	}
	return nil
}

// check accumulates shape violations. A non-mapping top level short-circuits
// the Resources checks.
func check(root *yaml.Node) []string {
	if root == nil || root.Kind != yaml.MappingNode {
		return []string{MsgNotMapping}
	}

	resources, ok := lookup(root, KeyResources)
	if !ok {
		return []string{MsgMissingResources}
	}

	var violations []string
	if resources == nil || resources.Kind != yaml.MappingNode {
		violations = append(violations, MsgResourcesNotMapping)
	}
	if isEmpty(resources) {
		violations = append(violations, MsgResourcesEmpty)
	}
	return violations
}

func isEmpty(n *yaml.Node) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return len(n.Content) == 0
	case yaml.ScalarNode:
		return n.ShortTag() == "!!null" || n.Value == ""
	}
	return false
}

// lookup finds key in a mapping node. The returned node is nil for an
// explicit null value; ok reports whether the key exists.
func lookup(m *yaml.Node, key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		v := valueNode(m.Content[i+1])
		if v != nil && v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null" {
			return nil, true
		}
		return v, true
	}
	return nil, false
}

func build(root *yaml.Node, format Format) *Template {
	t := &Template{
		Format:        format,
		resourceTypes: make(map[string]string),
	}

	if v, ok := lookup(root, KeyFormatVersion); ok && v != nil && v.Kind == yaml.ScalarNode {
		t.FormatVersion = v.Value
	}
	if v, ok := lookup(root, KeyDescription); ok && v != nil && v.Kind == yaml.ScalarNode {
		t.Description = v.Value
	}

	resources, _ := lookup(root, KeyResources)
	for i := 0; i+1 < len(resources.Content); i += 2 {
		name := resources.Content[i].Value
		t.resourceNames = append(t.resourceNames, name)
		if decl := valueNode(resources.Content[i+1]); decl != nil && decl.Kind == yaml.MappingNode {
			if typ, ok := lookup(decl, "Type"); ok && typ != nil {
				t.resourceTypes[name] = typ.Value
			}
		}
	}

	t.parameterNames = keys(root, KeyParameters)
	t.outputNames = keys(root, KeyOutputs)
	return t
}

func keys(root *yaml.Node, section string) []string {
	n, ok := lookup(root, section)
	if !ok || n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, n.Content[i].Value)
	}
	return out
}
