// Package tags provides the provenance and retention tags applied to stacks
// and agent runtimes.
//
// Tags are metadata only: they let external auditing and cleanup tooling find
// what this system created and never influence lifecycle decisions.
package tags
