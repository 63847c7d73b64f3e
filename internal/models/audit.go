package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionLogout            = "LOGOUT"
	AuditActionSettingUpdate     = "SETTING_UPDATE"
	AuditActionWindowUpdate      = "GOAL_WINDOW_UPDATE"
	AuditActionGoalCreate        = "GOAL_CREATE"
	AuditActionReflectionDraft   = "GOAL_REFLECTION_DRAFT"
	AuditActionReflectionSubmit  = "GOAL_REFLECTION_SUBMIT"
	AuditActionGoalSettingSubmit = "GOAL_SETTING_SUBMIT"
	AuditActionGoalCompletion    = "GOAL_COMPLETION_SUBMIT"
	AuditActionGoalMasterEdit    = "GOAL_MASTER_EDIT"
	AuditActionAccessResync      = "ACCESS_RESYNC"
)

// Audit resources.
const (
	AuditResourceAuth    = "auth"
	AuditResourceGoal    = "goal"
	AuditResourceWindow  = "goal_window"
	AuditResourceSetting = "setting"
	AuditResourceAccess  = "access"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string       `db:"id" json:"id"`
	UserID     *string      `db:"user_id" json:"user_id,omitempty"`
	Action     string       `db:"action" json:"action"`
	Resource   string       `db:"resource" json:"resource"`
	ResourceID *string      `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  JSONDocument `db:"old_values" json:"old_values,omitempty"`
	NewValues  JSONDocument `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string       `db:"ip_address" json:"ip_address"`
	UserAgent  string       `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
