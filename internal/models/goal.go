package models

import (
	"time"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
)

// Goal is a teacher's professional development goal and its workflow state.
type Goal struct {
	ID             string         `db:"id" json:"id"`
	TeacherID      string         `db:"teacher_id" json:"teacherId"`
	TeacherEmail   string         `db:"teacher_email" json:"teacherEmail"`
	TeacherName    string         `db:"teacher_name" json:"teacherName"`
	Department     string         `db:"department" json:"department"`
	Campus         string         `db:"campus" json:"campus"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	ActionStep     string         `db:"action_step" json:"actionStep"`
	Pillar         string         `db:"pillar" json:"pillar"`
	AcademicType   string         `db:"academic_type" json:"academicType"`
	DueDate        *time.Time     `db:"due_date" json:"dueDate,omitempty"`
	Status         workflow.State `db:"status" json:"status"`
	ReflectionData JSONDocument   `db:"reflection_data" json:"reflectionData"`
	SettingData    JSONDocument   `db:"setting_data" json:"settingData"`
	CompletionData JSONDocument   `db:"completion_data" json:"completionData"`
	CreatedBy      string         `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// RubricSignals extracts the classifier inputs from the goal.
func (g *Goal) RubricSignals() workflow.RubricSignals {
	return workflow.RubricSignals{
		Department:   g.Department,
		Email:        g.TeacherEmail,
		Category:     g.Pillar,
		Title:        g.Title,
		AcademicType: g.AcademicType,
	}
}

// GoalFilter constrains goal listing.
type GoalFilter struct {
	TeacherID string
	Status    []workflow.State
	Campus    string
	Search    string
	Page      int
	PageSize  int
}

// GoalStateChange describes a conditional status update.
type GoalStateChange struct {
	ID             string
	ExpectedStatus workflow.State
	NextStatus     workflow.State
	ReflectionData JSONDocument
	SettingData    JSONDocument
	CompletionData JSONDocument
	UpdatedAt      time.Time
}

// GoalMasterFields are the descriptive fields an admin may rewrite.
type GoalMasterFields struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ActionStep  *string    `json:"actionStep,omitempty"`
	Pillar      *string    `json:"pillar,omitempty"`
	Campus      *string    `json:"campus,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Empty reports whether no field is set.
func (f GoalMasterFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.ActionStep == nil && f.Pillar == nil && f.Campus == nil && f.DueDate == nil
}
