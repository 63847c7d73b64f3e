// Package realtime carries server-pushed events to connected clients over
// WebSocket, fanned out across API instances through Redis pub/sub.
package realtime

import (
	"encoding/json"
	"fmt"
)

const (
	// EventSettingsUpdated announces that a settings key changed.
	EventSettingsUpdated = "SETTINGS_UPDATED"
	// EventReady is the first frame written on every stream.
	EventReady = "ready"
)

// Event is the wire frame: {"event": "...", "data": {...}}.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SettingsUpdatedPayload is the data of a SETTINGS_UPDATED event.
type SettingsUpdatedPayload struct {
	Key string `json:"key"`
}

// NewEvent builds an event with a JSON-encoded payload. A nil payload yields
// an event without data.
func NewEvent(name string, payload interface{}) (Event, error) {
	evt := Event{Name: name}
	if payload == nil {
		return evt, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	evt.Data = raw
	return evt, nil
}

// SettingsUpdated builds the SETTINGS_UPDATED event for key.
func SettingsUpdated(key string) Event {
	raw, _ := json.Marshal(SettingsUpdatedPayload{Key: key})
	return Event{Name: EventSettingsUpdated, Data: raw}
}

// SettingsKey returns the key of a SETTINGS_UPDATED event. ok is false for
// any other event or an undecodable payload.
func (e Event) SettingsKey() (key string, ok bool) {
	if e.Name != EventSettingsUpdated || len(e.Data) == 0 {
		return "", false
	}
	var payload SettingsUpdatedPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return "", false
	}
	return payload.Key, payload.Key != ""
}
