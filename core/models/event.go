package models

import "time"

// LogEntry represents a single server-side log line, optionally correlated to a job
type LogEntry struct {
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"` // empty means system-wide
	Tier          Tier      `json:"tier,omitempty"`           // set for client-raised entries only
}

// Tier represents the severity a log entry is displayed with
type Tier string

const (
	TierError   Tier = "error"
	TierSuccess Tier = "success"
	TierWarning Tier = "warning"
	TierInfo    Tier = "info"
)

// CreateResult is the backend's answer to a create request
type CreateResult struct {
	Message string
	IDs     []string
}
