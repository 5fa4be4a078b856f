package domain

import "time"

// SyncStatus classifies a sync-log entry.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
	SyncWarning SyncStatus = "warning"
)

// SyncLogEntry is one line in the bounded sync log. The log is an in-memory
// ring, not a durable ledger.
type SyncLogEntry struct {
	ID            string     `json:"id"`
	IntegrationID string     `json:"integration_id"`
	Timestamp     time.Time  `json:"timestamp"`
	Status        SyncStatus `json:"status"`
	Message       string     `json:"message"`
	Details       string     `json:"details,omitempty"`
}

// Integration status values shown on the dashboard.
const (
	IntegrationConnected    = "connected"
	IntegrationDisconnected = "disconnected"
	IntegrationError        = "error"
)

// Integration describes a connectable platform and its current state.
type Integration struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Connected   bool       `json:"connected"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
}

// SyncResult reports the outcome of one integration within a refresh-all
// fan-out. Partial success across integrations is normal.
type SyncResult struct {
	IntegrationID string     `json:"integration_id"`
	Status        SyncStatus `json:"status"`
	Error         string     `json:"error,omitempty"`
}
