package workflow

import (
	"fmt"
	"time"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

// Action is a workflow operation requested by an actor.
type Action string

const (
	ActionSaveReflectionDraft Action = "SAVE_REFLECTION_DRAFT"
	ActionSubmitReflection    Action = "SUBMIT_SELF_REFLECTION"
	ActionSubmitGoalSetting   Action = "SUBMIT_GOAL_SETTING"
	ActionSubmitCompletion    Action = "SUBMIT_GOAL_COMPLETION"
	ActionMasterEdit          Action = "MASTER_FORM_EDIT"
)

// Request is one transition attempt.
type Request struct {
	State  State
	Action Action
	Actor  access.Role
	// FinalStatus is the evaluator's choice for ActionSubmitCompletion.
	FinalStatus State
	Windows     Windows
	Now         time.Time
}

type rule struct {
	actors []access.Role
	from   []State
	window Phase
	next   func(Request) State
}

func fixed(s State) func(Request) State {
	return func(Request) State { return s }
}

var rules = map[Action]rule{
	ActionSaveReflectionDraft: {
		actors: []access.Role{access.RoleTeacher, access.RoleAdmin, access.RoleSuperAdmin},
		from:   []State{StateSelfReflectionPending, StateInProgress},
		window: PhaseSelfReflection,
		next:   fixed(StateInProgress),
	},
	ActionSubmitReflection: {
		actors: []access.Role{access.RoleTeacher, access.RoleAdmin, access.RoleSuperAdmin},
		from:   []State{StateSelfReflectionPending, StateInProgress},
		window: PhaseSelfReflection,
		next:   fixed(StateSelfReflectionSubmitted),
	},
	ActionSubmitGoalSetting: {
		actors: []access.Role{access.RoleLeader, access.RoleAdmin, access.RoleSuperAdmin},
		from:   []State{StateSelfReflectionSubmitted},
		window: PhaseGoalSetting,
		next:   fixed(StateGoalSet),
	},
	ActionSubmitCompletion: {
		actors: []access.Role{access.RoleLeader, access.RoleAdmin, access.RoleSuperAdmin},
		from:   []State{StateGoalSet},
		window: PhaseGoalCompletion,
		next:   func(r Request) State { return r.FinalStatus },
	},
	ActionMasterEdit: {
		actors: []access.Role{access.RoleAdmin, access.RoleSuperAdmin},
		from:   States,
		next:   func(r Request) State { return r.State },
	},
}

// Bypasses reports whether role skips submission window checks.
func Bypasses(role access.Role) bool {
	return role == access.RoleAdmin || role == access.RoleSuperAdmin
}

// Transition validates req and returns the resulting state. Checks run in
// order: actor role, current state, completion status, submission window.
func Transition(req Request) (State, error) {
	r, ok := rules[req.Action]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown workflow action %q", req.Action))
	}
	if !hasRole(r.actors, req.Actor) {
		return "", appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %q cannot perform %s", req.Actor, req.Action))
	}
	if !hasState(r.from, req.State) {
		return "", appErrors.Clone(appErrors.ErrPhaseMismatch, fmt.Sprintf("%s is not allowed while the goal is %s", req.Action, req.State))
	}
	if req.Action == ActionSubmitCompletion && !req.FinalStatus.Terminal() {
		return "", appErrors.Clone(appErrors.ErrValidation, "status must be one of GOAL_COMPLETED, PARTIALLY_MET, NOT_MET")
	}
	if r.window != "" && !Bypasses(req.Actor) && !req.Windows.Open(r.window, req.Now) {
		return "", appErrors.Clone(appErrors.ErrWindowClosed, fmt.Sprintf("the %s window is closed", r.window))
	}
	return r.next(req), nil
}

func hasRole(roles []access.Role, role access.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func hasState(states []State, state State) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}
