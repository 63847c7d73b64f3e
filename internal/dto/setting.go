package dto

import (
	"encoding/json"
	"time"
)

// SettingItem represents a setting entry exposed via API. Value is the raw
// JSON document.
type SettingItem struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	IsDefault   bool            `json:"isDefault,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
	// Cached reports that the item was served from the cache.
	Cached bool `json:"-"`
}

// UpdateSettingRequest carries the new value for a single key.
type UpdateSettingRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}
