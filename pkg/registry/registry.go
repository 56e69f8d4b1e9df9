// Package registry holds the in-memory conversation state: every session,
// every per-session transcript, and the active session. It is the single
// source of truth the API surface reads; the persisted store only ever holds
// a serialized copy.
package registry

import (
	"errors"
	"strings"
	"sync"
	"time"

	"carechat/pkg/ident"
	"carechat/pkg/logger"
	"carechat/pkg/models"
	"carechat/pkg/store"
	"carechat/pkg/telemetry"
)

// Submission rejections. ErrExchangeInFlight maps to 409 at the HTTP layer,
// ErrBlankSubmit to 400.
var (
	ErrExchangeInFlight = errors.New("an exchange is already in flight")
	ErrBlankSubmit      = errors.New("text required")
)

// Registry is the conversation state machine. All mutations are serialized
// under one mutex; the only suspension point in a submit flow (the remote
// exchange) happens outside the lock, between BeginSubmit and the reply
// append.
type Registry struct {
	mu       sync.Mutex
	blob     store.Blob
	sessions []models.Session
	messages map[string][]models.Message
	current  string

	// exchanging gates BeginSubmit while a remote call is outstanding.
	// Session create/switch/delete stay available during that window.
	exchanging bool
}

// New builds a registry around the given persisted-store port.
func New(blob store.Blob) *Registry {
	return &Registry{
		blob:     blob,
		messages: map[string][]models.Message{},
	}
}

// Initialize restores persisted state when it is usable and synthesizes a
// fresh single-session store otherwise. It never fails: any panic during
// restore falls back to a new session.
func (r *Registry) Initialize() {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("registry_restore_panic", "panic", rec)
			r.mu.Lock()
			r.sessions = nil
			r.messages = map[string][]models.Message{}
			r.current = ""
			r.mu.Unlock()
			r.CreateSession()
		}
	}()

	cs := r.blob.Load()
	if cs == nil || len(cs.Sessions) == 0 || !hasSession(cs.Sessions, cs.CurrentSessionID) {
		r.CreateSession()
		return
	}

	r.mu.Lock()
	r.sessions = cs.Sessions
	r.messages = cs.MessagesBySession
	r.current = cs.CurrentSessionID
	// Recompute active flags from the stored current id rather than trusting
	// possibly-stale flags in storage.
	for i := range r.sessions {
		r.sessions[i].Active = r.sessions[i].ID == r.current
	}
	// Repair list/session mismatches: a session without a list gets an empty
	// one, a list without a session is dropped.
	for i := range r.sessions {
		if _, ok := r.messages[r.sessions[i].ID]; !ok {
			r.messages[r.sessions[i].ID] = []models.Message{}
		}
	}
	for id := range r.messages {
		if !hasSession(r.sessions, id) {
			delete(r.messages, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	telemetry.SetSessionCount(n)
	logger.Info("registry_restored", "sessions", n, "current", cs.CurrentSessionID)
}

// CreateSession generates a new conversation, prepends it as the active
// session, and persists the updated store. Always succeeds.
func (r *Registry) CreateSession() string {
	r.mu.Lock()
	id := ident.New()
	for i := range r.sessions {
		r.sessions[i].Active = false
	}
	r.sessions = append([]models.Session{models.NewSession(id)}, r.sessions...)
	r.messages[id] = []models.Message{}
	r.current = id
	r.persistLocked()
	n := len(r.sessions)
	r.mu.Unlock()

	telemetry.SetSessionCount(n)
	logger.Info("session_created", "session", id)
	return id
}

// SwitchSession makes the named session active and current. Switching to the
// current session, or to an unknown id, is a no-op. Other sessions' message
// lists are not touched.
func (r *Registry) SwitchSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.current {
		return
	}
	if !hasSession(r.sessions, id) {
		logger.Warn("switch_unknown_session", "session", id)
		return
	}
	for i := range r.sessions {
		r.sessions[i].Active = r.sessions[i].ID == id
	}
	r.current = id
	if _, ok := r.messages[id]; !ok {
		// Recoverable inconsistency: display an empty transcript.
		logger.Warn("switch_missing_message_list", "session", id)
		r.messages[id] = []models.Message{}
	}
	r.blob.Save(store.Partial{Sessions: cloneSessions(r.sessions), CurrentSessionID: &r.current})
	logger.Info("session_switched", "session", id)
}

// BeginSubmit runs the accept phase of a submission as one atomic step:
// under a single lock acquisition it checks that no exchange is outstanding
// and the text is usable, appends the user message to the current session,
// persists it, and marks the exchange in flight keyed to that session. A
// submission that is rejected mutates nothing, so it never strands a user
// message without a reply; one that is accepted owns the in-flight window
// until the reply (or placeholder) append releases it.
func (r *Registry) BeginSubmit(text string) (*models.Message, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exchanging {
		return nil, "", ErrExchangeInFlight
	}
	if strings.TrimSpace(text) == "" || r.current == "" {
		return nil, "", ErrBlankSubmit
	}
	msg := models.Message{
		ID:        ident.NewMessageID(),
		Content:   text,
		Role:      models.RoleUser,
		Timestamp: time.Now().UTC(),
		SessionID: r.current,
	}
	r.messages[r.current] = append(r.messages[r.current], msg)
	r.blob.Save(store.Partial{MessagesBySession: cloneMessages(r.messages)})
	r.exchanging = true
	return &msg, r.current, nil
}

// Exchanging reports whether an exchange is outstanding.
func (r *Registry) Exchanging() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exchanging
}

// AppendAssistantReply files the reply under the session captured when the
// exchange began, which may no longer be the displayed one, and refreshes
// that session's cached fields. It also releases the in-flight window, under
// the same lock, so no submission can be accepted between the release and
// the append. The returned message is nil when the session vanished while
// the exchange was in flight.
func (r *Registry) AppendAssistantReply(sessionID, userText, replyText string) *models.Message {
	return r.appendAssistant(sessionID, userText, replyText)
}

// AppendErrorPlaceholder files a fallback message as an ordinary assistant
// reply, preserving the append-only transcript on exchange failure. Like
// AppendAssistantReply it releases the in-flight window.
func (r *Registry) AppendErrorPlaceholder(sessionID, userText, fallback string) *models.Message {
	return r.appendAssistant(sessionID, userText, fallback)
}

func (r *Registry) appendAssistant(sessionID, userText, text string) *models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	// The window closes even when the session is gone.
	r.exchanging = false
	idx := sessionIndex(r.sessions, sessionID)
	if idx < 0 {
		logger.Warn("reply_session_gone", "session", sessionID)
		return nil
	}
	msg := models.Message{
		ID:        ident.NewMessageID(),
		Content:   text,
		Role:      models.RoleAssistant,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
	r.messages[sessionID] = append(r.messages[sessionID], msg)

	s := &r.sessions[idx]
	s.MessageCount = len(r.messages[sessionID])
	s.LastMessage = models.TruncatePreview(text)
	s.Timestamp = msg.Timestamp.Format(time.RFC3339Nano)
	if s.Title == models.TitleSentinel && strings.TrimSpace(userText) != "" {
		s.Title = models.TruncateTitle(userText)
	}

	r.persistLocked()
	return &msg
}

// DeleteSession removes the session and its transcript. When the active
// session is deleted the first survivor becomes active; deleting the last
// session clears persisted state and creates a fresh one. Reports whether the
// id was known.
func (r *Registry) DeleteSession(id string) bool {
	r.mu.Lock()
	idx := sessionIndex(r.sessions, id)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	r.sessions = append(r.sessions[:idx], r.sessions[idx+1:]...)
	delete(r.messages, id)

	wasCurrent := id == r.current
	if wasCurrent && len(r.sessions) == 0 {
		r.current = ""
		r.blob.Clear()
		r.mu.Unlock()
		r.CreateSession()
		logger.Info("session_deleted_last", "session", id)
		return true
	}
	if wasCurrent {
		// Survivors keep their list order; the first one takes over.
		r.current = r.sessions[0].ID
		for i := range r.sessions {
			r.sessions[i].Active = r.sessions[i].ID == r.current
		}
		if _, ok := r.messages[r.current]; !ok {
			r.messages[r.current] = []models.Message{}
		}
	}
	r.persistLocked()
	n := len(r.sessions)
	r.mu.Unlock()

	telemetry.SetSessionCount(n)
	logger.Info("session_deleted", "session", id, "was_current", wasCurrent)
	return true
}

// Reset clears persisted state and starts over with a single fresh session.
func (r *Registry) Reset() string {
	r.mu.Lock()
	r.sessions = nil
	r.messages = map[string][]models.Message{}
	r.current = ""
	r.exchanging = false
	r.blob.Clear()
	r.mu.Unlock()
	logger.Info("registry_reset")
	return r.CreateSession()
}

// Sessions returns a copy of the session list in display order.
func (r *Registry) Sessions() []models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneSessions(r.sessions)
}

// Messages returns a copy of the named session's transcript; an empty id
// means the current session. The second result reports whether the session
// exists.
func (r *Registry) Messages(id string) ([]models.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		id = r.current
	}
	if !hasSession(r.sessions, id) {
		return nil, false
	}
	return append([]models.Message(nil), r.messages[id]...), true
}

// CurrentSessionID returns the id of the active session, or "".
func (r *Registry) CurrentSessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// persistLocked writes the full store. Callers hold r.mu.
func (r *Registry) persistLocked() {
	r.blob.Save(store.Partial{
		Sessions:          cloneSessions(r.sessions),
		MessagesBySession: cloneMessages(r.messages),
		CurrentSessionID:  &r.current,
	})
}

func hasSession(sessions []models.Session, id string) bool {
	return sessionIndex(sessions, id) >= 0
}

func sessionIndex(sessions []models.Session, id string) int {
	if id == "" {
		return -1
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneSessions(in []models.Session) []models.Session {
	return append([]models.Session(nil), in...)
}

func cloneMessages(in map[string][]models.Message) map[string][]models.Message {
	out := make(map[string][]models.Message, len(in))
	for k, v := range in {
		out[k] = append([]models.Message(nil), v...)
	}
	return out
}
