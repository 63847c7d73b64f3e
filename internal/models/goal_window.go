package models

import (
	"time"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/workflow"
)

// GoalWindow is the persisted submission window of a workflow phase.
type GoalWindow struct {
	Phase     workflow.Phase        `db:"phase" json:"phase"`
	Status    workflow.WindowStatus `db:"status" json:"status"`
	StartDate *time.Time            `db:"start_date" json:"startDate,omitempty"`
	EndDate   *time.Time            `db:"end_date" json:"endDate,omitempty"`
	UpdatedBy *string               `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt time.Time             `db:"updated_at" json:"updatedAt"`
}

// Window converts the row into the workflow representation.
func (w GoalWindow) Window() workflow.Window {
	return workflow.Window{Phase: w.Phase, Status: w.Status, StartDate: w.StartDate, EndDate: w.EndDate}
}

// WindowSet indexes rows for workflow checks.
func WindowSet(rows []GoalWindow) workflow.Windows {
	list := make([]workflow.Window, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.Window())
	}
	return workflow.NewWindows(list)
}
