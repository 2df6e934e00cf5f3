package entity

import (
	"encoding/json"
	"time"
)

// FailedEvent is a booking event that exhausted its delivery attempts.
type FailedEvent struct {
	Key      string          `json:"key"`
	Message  json.RawMessage `json:"message"`
	Error    string          `json:"error"`
	FailedAt time.Time       `json:"failed_at"`
}
