package ports

import "tiktok-analytics-layer/internal/domain"

// SyncLogStore defines the interface for the bounded sync log.
type SyncLogStore interface {
	// Append records an entry, filling its ID and timestamp, and returns
	// the stored entry. Oldest entries are evicted past the capacity.
	Append(entry domain.SyncLogEntry) domain.SyncLogEntry

	// Entries returns the log most-recent-first.
	Entries() []domain.SyncLogEntry
}
