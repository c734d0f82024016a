// Package longterm declares the contract for durable, cross-conversation
// memory: an append-only store retrievable by user and entry type. It is
// out of scope for this runtime except for its interface shape — no
// backend is wired here. A deployment that needs durable memory implements
// Store against its own persistence and passes it to the orchestrator.
package longterm

import (
	"context"
	"time"
)

// Entry is a single durable memory fact.
type Entry struct {
	UserID    string
	Type      string
	Content   string
	CreatedAt time.Time
}

// Store is the long-term memory contract: append-only writes, retrieval
// scoped to a user and an entry type.
type Store interface {
	// Append records a new entry. It never mutates or removes existing
	// entries.
	Append(ctx context.Context, entry Entry) error

	// Retrieve returns entries for userID with the given type, most
	// recent first, up to limit entries.
	Retrieve(ctx context.Context, userID, entryType string, limit int) ([]Entry, error)
}
