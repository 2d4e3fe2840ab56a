package domain

import (
	"encoding/json"
	"time"
)

// Record is a persisted document: only user-editable fields, as JSON.
type Record struct {
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
	SavedAt time.Time       `json:"saved_at"`
}

// NewRecord creates a record stamped with the current time.
func NewRecord(id string, data []byte) *Record {
	return &Record{
		ID:      id,
		Data:    append(json.RawMessage(nil), data...),
		SavedAt: time.Now().UTC(),
	}
}
