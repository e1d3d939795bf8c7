// Package template parses and structurally validates declarative
// infrastructure templates before any deployment attempt.
//
// Validation is local and offline. A template is parsed as YAML first and as
// JSON second; the parsed document must be a mapping with a non-empty
// Resources mapping. Backend-side validation lives in the stack package.
package template
