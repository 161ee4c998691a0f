package models

import (
	"time"
)

// StatusUpdate is the envelope pushed to dashboard WebSocket clients.
type StatusUpdate struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Status    string      `json:"status,omitempty"`
	Message   string      `json:"message,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
