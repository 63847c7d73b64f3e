package workflow

import "github.com/EkyaSchools001/pdi-updated-sub000/internal/access"

// View is the form a role is presented for a goal.
type View string

const (
	ViewSelfReflection View = "SELF_REFLECTION"
	ViewGoalSetting    View = "GOAL_SETTING"
	ViewGoalCompletion View = "GOAL_COMPLETION"
	ViewMasterForm     View = "MASTER_FORM"
	ViewReadOnly       View = "VIEW"
)

// TabSelfReflection is the secondary tab that takes an admin to the
// teacher's reflection form.
const TabSelfReflection = "self-reflection"

// PhaseFor derives the presented view from role and the server-held state.
func PhaseFor(role access.Role, state State, tab string) View {
	switch role {
	case access.RoleTeacher:
		if state.AwaitingReflection() {
			return ViewSelfReflection
		}
	case access.RoleLeader:
		switch state {
		case StateSelfReflectionSubmitted:
			return ViewGoalSetting
		case StateGoalSet:
			return ViewGoalCompletion
		}
	case access.RoleAdmin, access.RoleSuperAdmin:
		if tab == TabSelfReflection {
			return ViewSelfReflection
		}
		return ViewMasterForm
	}
	return ViewReadOnly
}
