// Package store persists the conversation state as a single serialized blob
// in a local Pebble database. The whole ConversationStore is one entry; every
// save rewrites it. Readers must treat a nil Load result as "no prior state".
package store

import (
	"carechat/pkg/models"
)

// Blob is the persisted-store port the registry consumes. It is satisfied by
// the Pebble adapter and by the in-memory fake used in tests and when the
// database cannot be opened.
type Blob interface {
	// Load returns the persisted store, or nil when the entry is absent or
	// unreadable. Load never returns an error: missing or corrupt state is
	// "no prior state", not a failure.
	Load() *models.ConversationStore
	// Save shallow-merges the partial over the current persisted state and
	// writes the merged whole back as one entry. Storage failures are logged
	// and swallowed; the caller continues with its in-memory state.
	Save(p Partial)
	// Clear removes the persisted entry entirely.
	Clear()
}

// Partial is a shallow-merge update. A non-nil MessagesBySession replaces the
// entire map; callers construct the full replacement before saving.
type Partial struct {
	Sessions          []models.Session
	MessagesBySession map[string][]models.Message
	CurrentSessionID  *string
}

func emptyStore() *models.ConversationStore {
	return &models.ConversationStore{
		Sessions:          []models.Session{},
		MessagesBySession: map[string][]models.Message{},
	}
}

func applyPartial(cur *models.ConversationStore, p Partial) {
	if p.Sessions != nil {
		cur.Sessions = p.Sessions
	}
	if p.MessagesBySession != nil {
		cur.MessagesBySession = p.MessagesBySession
	}
	if p.CurrentSessionID != nil {
		cur.CurrentSessionID = *p.CurrentSessionID
	}
}
