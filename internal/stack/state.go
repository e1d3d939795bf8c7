package stack

import "strings"

// State is a backend lifecycle state.
type State string

// Stack states reported by the backend.
const (
	StateCreateInProgress   State = "CREATE_IN_PROGRESS"
	StateCreateComplete     State = "CREATE_COMPLETE"
	StateCreateFailed       State = "CREATE_FAILED"
	StateRollbackInProgress State = "ROLLBACK_IN_PROGRESS"
	StateRollbackFailed     State = "ROLLBACK_FAILED"
	StateRollbackComplete   State = "ROLLBACK_COMPLETE"
	StateDeleteInProgress   State = "DELETE_IN_PROGRESS"
	StateDeleteFailed       State = "DELETE_FAILED"
	StateDeleteComplete     State = "DELETE_COMPLETE"

	StateUpdateInProgress                        State = "UPDATE_IN_PROGRESS"
	StateUpdateCompleteCleanupInProgress         State = "UPDATE_COMPLETE_CLEANUP_IN_PROGRESS"
	StateUpdateComplete                          State = "UPDATE_COMPLETE"
	StateUpdateFailed                            State = "UPDATE_FAILED"
	StateUpdateRollbackInProgress                State = "UPDATE_ROLLBACK_IN_PROGRESS"
	StateUpdateRollbackFailed                    State = "UPDATE_ROLLBACK_FAILED"
	StateUpdateRollbackCompleteCleanupInProgress State = "UPDATE_ROLLBACK_COMPLETE_CLEANUP_IN_PROGRESS"
	StateUpdateRollbackComplete                  State = "UPDATE_ROLLBACK_COMPLETE"

	StateReviewInProgress State = "REVIEW_IN_PROGRESS"

	StateImportInProgress         State = "IMPORT_IN_PROGRESS"
	StateImportComplete           State = "IMPORT_COMPLETE"
	StateImportRollbackInProgress State = "IMPORT_ROLLBACK_IN_PROGRESS"
	StateImportRollbackFailed     State = "IMPORT_ROLLBACK_FAILED"
	StateImportRollbackComplete   State = "IMPORT_ROLLBACK_COMPLETE"
)

// Phase is the coarse lifecycle position of a deployment.
type Phase string

const (
	PhaseDeploying   Phase = "deploying"
	PhaseDeployed    Phase = "deployed"
	PhaseRollingBack Phase = "rolling-back"
	PhaseRolledBack  Phase = "rolled-back"
	PhaseFailed      Phase = "failed"
	PhaseDeleting    Phase = "deleting"
	PhaseDeleted     Phase = "deleted"
	PhaseUnknown     Phase = "unknown"
)

// IsInProgress reports whether the backend is still transitioning.
func (s State) IsInProgress() bool {
	return strings.HasSuffix(string(s), "_IN_PROGRESS")
}

// IsTerminal reports whether no further automatic transition will happen
// without external action.
func (s State) IsTerminal() bool {
	return s != "" && !s.IsInProgress()
}

// IsRollback reports whether the state belongs to a rollback.
func (s State) IsRollback() bool {
	return strings.Contains(string(s), "ROLLBACK")
}

// IsComplete reports whether the last requested operation succeeded.
func (s State) IsComplete() bool {
	switch s {
	case StateCreateComplete, StateUpdateComplete, StateImportComplete, StateDeleteComplete:
		return true
	}
	return false
}

// IsFailed reports whether the last requested operation failed. A completed
// rollback is a failure of the operation it undid.
func (s State) IsFailed() bool {
	if strings.HasSuffix(string(s), "_FAILED") {
		return true
	}
	return s.IsRollback() && strings.HasSuffix(string(s), "_COMPLETE")
}

// Phase maps the state onto the coarse lifecycle.
func (s State) Phase() Phase {
	switch {
	case s == "":
		return PhaseUnknown
	case s == StateDeleteComplete:
		return PhaseDeleted
	case s == StateDeleteInProgress:
		return PhaseDeleting
	case s.IsRollback() && s.IsInProgress():
		return PhaseRollingBack
	case s.IsRollback() && strings.HasSuffix(string(s), "_COMPLETE"):
		return PhaseRolledBack
	case s.IsFailed():
		return PhaseFailed
	case s.IsInProgress():
		return PhaseDeploying
	case s.IsComplete():
		return PhaseDeployed
	}
	return PhaseUnknown
}

func (s State) String() string {
	return string(s)
}
