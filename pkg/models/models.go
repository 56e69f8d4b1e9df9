package models

import "time"

// Roles a message may carry. Replies synthesized from exchange failures are
// filed as assistant messages so the transcript stays append-only.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TitleSentinel is the title of a session before its first user message.
const TitleSentinel = "New conversation"

const (
	// TitleMax is the truncation limit applied when a session title is
	// derived from the first user message.
	TitleMax = 30
	// PreviewMax is the truncation limit for a session's cached last-message
	// preview.
	PreviewMax = 50
)

// Message is one transcript entry. Immutable once created; the persisted
// store holds a serialized copy, not a shared reference.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
}

// Session is one independent conversation thread. Timestamp is kept as the
// serialized string form; MessageCount and LastMessage are cached fields
// refreshed after each completed exchange.
type Session struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Active       bool   `json:"active"`
	LastMessage  string `json:"lastMessage,omitempty"`
	Timestamp    string `json:"timestamp"`
	MessageCount int    `json:"messageCount"`
}

// ConversationStore is the persisted shape: every session, every per-session
// message list, and the id of the active session. Invariants: when Sessions
// is non-empty CurrentSessionID names one of them, and the key set of
// MessagesBySession matches the session id set exactly (empty lists are
// valid).
type ConversationStore struct {
	Sessions          []Session            `json:"sessions"`
	MessagesBySession map[string][]Message `json:"messagesBySession"`
	CurrentSessionID  string               `json:"currentSessionId"`
}

// NewSession builds a session with the sentinel title, stamped now.
func NewSession(id string) Session {
	return Session{
		ID:        id,
		Title:     TitleSentinel,
		Active:    true,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// TruncateTitle shortens s to TitleMax runes, appending an ellipsis when
// anything was cut.
func TruncateTitle(s string) string {
	return truncate(s, TitleMax)
}

// TruncatePreview shortens s to PreviewMax runes, appending an ellipsis when
// anything was cut.
func TruncatePreview(s string) string {
	return truncate(s, PreviewMax)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
