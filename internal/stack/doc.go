// Package stack implements the stack-deployment lifecycle: submitting a
// validated template, reading the current state of a deployment and reading
// its event log.
//
// # Lifecycle
//
// A deployment is created by [Provisioner.Deploy] and starts in
// CREATE_IN_PROGRESS. From there only the remote backend moves it, towards
// CREATE_COMPLETE or, on partial failure, through ROLLBACK_IN_PROGRESS to
// ROLLBACK_COMPLETE. [State] classifies the backend vocabulary into phases
// and terminal states.
//
// # Concurrency
//
// The backend is the only owner of deployment records. Nothing here locks,
// caches or waits: every read is a single round trip and may be stale by the
// time the caller acts on it. Waiting for completion is a caller-side poll
// loop.
//
// # Errors
//
// [NotFoundError], [BackendError] and [DeployError] are returned as values
// and inspected with errors.As.
package stack
