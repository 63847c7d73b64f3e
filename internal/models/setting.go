package models

import "time"

// Setting is a persisted application setting. Value holds JSON.
type Setting struct {
	Key       string       `db:"key" json:"key"`
	Value     JSONDocument `db:"value" json:"value"`
	UpdatedBy *string      `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}
