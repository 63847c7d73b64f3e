package workflow

import "time"

// Phase names a submission phase that a window can gate.
type Phase string

const (
	PhaseSelfReflection Phase = "SELF_REFLECTION"
	PhaseGoalSetting    Phase = "GOAL_SETTING"
	PhaseGoalCompletion Phase = "GOAL_COMPLETION"
)

// Phases lists the gated phases in lifecycle order.
var Phases = []Phase{PhaseSelfReflection, PhaseGoalSetting, PhaseGoalCompletion}

// Valid reports whether p is a gated phase.
func (p Phase) Valid() bool {
	return p == PhaseSelfReflection || p == PhaseGoalSetting || p == PhaseGoalCompletion
}

// WindowStatus is the manual override of a window.
type WindowStatus string

const (
	WindowOpen   WindowStatus = "OPEN"
	WindowClosed WindowStatus = "CLOSED"
)

// Window is the submission window configured for one phase.
type Window struct {
	Phase     Phase
	Status    WindowStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// IsWindowOpen reports whether w accepts submissions at now. Both bounds
// are inclusive.
func IsWindowOpen(w Window, now time.Time) bool {
	if w.Status == WindowClosed {
		return false
	}
	if w.StartDate != nil && now.Before(*w.StartDate) {
		return false
	}
	if w.EndDate != nil && now.After(*w.EndDate) {
		return false
	}
	return true
}

// Windows indexes windows by phase.
type Windows map[Phase]Window

// NewWindows indexes list. Later entries for the same phase win.
func NewWindows(list []Window) Windows {
	ws := make(Windows, len(list))
	for _, w := range list {
		ws[w.Phase] = w
	}
	return ws
}

// Open reports whether phase accepts submissions at now. A phase without a
// configured window is open.
func (ws Windows) Open(phase Phase, now time.Time) bool {
	w, ok := ws[phase]
	if !ok {
		return true
	}
	return IsWindowOpen(w, now)
}
