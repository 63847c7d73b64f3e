package dto

import (
	"encoding/json"
	"time"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/models"
	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
)

// CreateGoalRequest opens a goal for a teacher at the start of the cycle.
type CreateGoalRequest struct {
	TeacherID   string     `json:"teacherId" validate:"required"`
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=4000"`
	ActionStep  string     `json:"actionStep" validate:"max=4000"`
	Pillar      string     `json:"pillar" validate:"max=120"`
	Campus      string     `json:"campus" validate:"max=120"`
	DueDate     *time.Time `json:"dueDate"`
}

// ReflectionRequest carries a self-reflection draft or submission.
type ReflectionRequest struct {
	ReflectionData json.RawMessage `json:"reflectionData"`
}

// GoalSettingRequest carries the leader's goal-setting form.
type GoalSettingRequest struct {
	SettingData json.RawMessage `json:"settingData"`
}

// GoalCompletionRequest carries the leader's evaluation and final status.
type GoalCompletionRequest struct {
	CompletionData json.RawMessage `json:"completionData"`
	Status         workflow.State  `json:"status"`
}

// GoalQuery mirrors supported listing filters.
type GoalQuery struct {
	Status    []workflow.State
	Campus    string
	TeacherID string
	Search    string
	Page      int
	PageSize  int
}

// GoalView is a goal with the form presented to the caller.
type GoalView struct {
	Goal       *models.Goal    `json:"goal"`
	Phase      workflow.View   `json:"phase"`
	Rubric     workflow.Rubric `json:"rubric"`
	Indicators []string        `json:"indicators"`
	WindowOpen bool            `json:"windowOpen"`
}

// GoalHistoryEntry is one audited change of a goal.
type GoalHistoryEntry struct {
	Action    string              `json:"action"`
	UserID    *string             `json:"userId,omitempty"`
	OldValues models.JSONDocument `json:"oldValues,omitempty"`
	NewValues models.JSONDocument `json:"newValues,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// UpdateGoalWindowRequest sets the window of a phase.
type UpdateGoalWindowRequest struct {
	Status    workflow.WindowStatus `json:"status" validate:"required,oneof=OPEN CLOSED"`
	StartDate *time.Time            `json:"startDate"`
	EndDate   *time.Time            `json:"endDate"`
}
