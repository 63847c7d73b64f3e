package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONDocument is a nullable JSONB column passed through to responses
// verbatim. An empty document is stored as NULL and rendered as null.
type JSONDocument json.RawMessage

// Value implements driver.Valuer.
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return []byte(d), nil
}

// Scan implements sql.Scanner.
func (d *JSONDocument) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append(JSONDocument(nil), v...)
	case string:
		*d = JSONDocument(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONDocument", value)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *JSONDocument) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = nil
		return nil
	}
	*d = append((*d)[:0], data...)
	return nil
}

// MustJSON marshals v for audit snapshots, yielding nil on failure.
func MustJSON(v interface{}) JSONDocument {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
