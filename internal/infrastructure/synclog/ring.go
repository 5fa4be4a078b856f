// Package synclog keeps a bounded in-memory log of sync activity for the
// dashboard. It is a display aid, not a durable audit trail.
package synclog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tiktok-analytics-layer/internal/domain"
)

// DefaultCapacity bounds the log when no explicit capacity is given.
const DefaultCapacity = 50

// Ring is a fixed-capacity, most-recent-first sync log. Safe for concurrent
// use.
type Ring struct {
	mu      sync.RWMutex
	entries []domain.SyncLogEntry
	cap     int
}

// NewRing creates a ring with the given capacity; non-positive capacities take
// the default.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{cap: capacity}
}

// Append records an entry, filling its ID and timestamp when absent, and
// returns the stored entry. The oldest entry is evicted past capacity.
func (r *Ring) Append(entry domain.SyncLogEntry) domain.SyncLogEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append([]domain.SyncLogEntry{entry}, r.entries...)
	if len(r.entries) > r.cap {
		r.entries = r.entries[:r.cap]
	}
	return entry
}

// Entries returns a copy of the log, most recent first.
func (r *Ring) Entries() []domain.SyncLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.SyncLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
