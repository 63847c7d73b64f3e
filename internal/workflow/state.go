// Package workflow holds the goal lifecycle rules: actor-gated phase
// transitions, submission windows, the phase presented to each role and the
// reflection rubric classifier. Everything here is free of I/O.
package workflow

// State is the lifecycle state of a goal.
type State string

const (
	StateSelfReflectionPending   State = "SELF_REFLECTION_PENDING"
	StateInProgress              State = "IN_PROGRESS"
	StateSelfReflectionSubmitted State = "SELF_REFLECTION_SUBMITTED"
	StateGoalSet                 State = "GOAL_SET"
	StateGoalCompleted           State = "GOAL_COMPLETED"
	StatePartiallyMet            State = "PARTIALLY_MET"
	StateNotMet                  State = "NOT_MET"
)

// InitialState is the state of a newly created goal.
const InitialState = StateSelfReflectionPending

// States lists every state in lifecycle order.
var States = []State{
	StateSelfReflectionPending,
	StateInProgress,
	StateSelfReflectionSubmitted,
	StateGoalSet,
	StateGoalCompleted,
	StatePartiallyMet,
	StateNotMet,
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	for _, state := range States {
		if s == state {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the lifecycle.
func (s State) Terminal() bool {
	switch s {
	case StateGoalCompleted, StatePartiallyMet, StateNotMet:
		return true
	default:
		return false
	}
}

// AwaitingReflection reports whether the teacher still owns the goal.
func (s State) AwaitingReflection() bool {
	return s == StateSelfReflectionPending || s == StateInProgress
}
