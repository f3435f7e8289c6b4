package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrGuardRejected     = errors.New("transition rejected by guard")
)

// Reason codes carried by GuardError and returned to API clients.
const (
	ReasonIncompleteConfirmation = "incomplete_confirmation"
	ReasonBuildPrecondition      = "build_precondition"
	ReasonAppearancesInProgress  = "appearances_in_progress"
	ReasonRoundNotStarted        = "round_not_started"
	ReasonRoundClosed            = "round_closed"
	ReasonChildrenBehind         = "children_behind"
	ReasonSessionNotOpen         = "session_not_open"
	ReasonVariancePending        = "variance_pending"
	ReasonTotalsStale            = "totals_stale"
	ReasonGuardFailed            = "guard_failed"
)

// TransitionError means no rule exists for the action in the current state.
type TransitionError struct {
	Machine string
	Action  Action
	From    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from state %q", e.Machine, e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// GuardError means a rule exists but its precondition does not hold.
type GuardError struct {
	Reason string
	Detail string
}

func (e *GuardError) Error() string {
	if e.Detail == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *GuardError) Is(target error) bool {
	return target == ErrGuardRejected
}

func reject(reason string, format string, args ...any) *GuardError {
	return &GuardError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
