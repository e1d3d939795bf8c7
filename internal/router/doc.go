// Package router turns one invocation request into a stream of fragments.
//
// Every request resolves to an action. The action runs its steps in order
// and reports each step as a JSON-encoded StepResult fragment; free text from
// collaborating agents is relayed as plain fragments. Step failures are
// reported, never raised, so a stream always ends normally: the fragment
// channel is closed when the action completes or the context is cancelled.
//
// A deploy request whose template fails local validation never reaches the
// provisioning backend.
package router
