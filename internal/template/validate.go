package template

import (
	"errors"
	"fmt"
)

// MsgValid is the informational message of a successful validation.
const MsgValid = "Template structure is valid"

// NoteMissingFormatVersion is attached to valid results whose template does
// not declare AWSTemplateFormatVersion.
var NoteMissingFormatVersion = fmt.Sprintf(
	"%s not specified (recommended: '%s')", KeyFormatVersion, RecommendedFormatVersion)

// Result is the outcome of a local validation. A valid result carries
// Message; an invalid one carries Errors. Notes are non-fatal.
type Result struct {
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message,omitempty"`
	Notes   []string `json:"notes,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

// Validate checks raw without any network access.
func Validate(raw string) Result {
	tmpl, err := Parse(raw)
	if err != nil {
		return invalid(err)
	}

	res := Result{Valid: true, Message: MsgValid, Summary: tmpl.Summary()}
	if !tmpl.HasFormatVersion() {
		res.Notes = append(res.Notes, NoteMissingFormatVersion)
	}
	return res
}

func invalid(err error) Result {
	var structural *StructuralError
	if errors.As(err, &structural) {
		return Result{Valid: false, Errors: append([]string(nil), structural.Violations...)}
	}
	return Result{Valid: false, Errors: []string{err.Error()}}
}
