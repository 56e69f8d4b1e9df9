// Package handlers implements the /v1 HTTP surface over the conversation
// registry. Handlers are thin: decode, call the registry, encode. All
// conversation invariants live in the registry itself.
package handlers

import (
	"net/http"

	"carechat/pkg/models"
	"carechat/pkg/registry"
	"carechat/pkg/utils"

	"github.com/gorilla/mux"
)

// sessionList is the canonical collection response: the ordered session
// list plus which one is active.
type sessionList struct {
	Sessions         []models.Session `json:"sessions"`
	CurrentSessionID string           `json:"currentSessionId"`
}

type sessionHandlers struct {
	reg *registry.Registry
}

// RegisterSessions registers session CRUD routes on the provided router.
func RegisterSessions(r *mux.Router, reg *registry.Registry) {
	h := &sessionHandlers{reg: reg}
	r.HandleFunc("/sessions", h.create).Methods(http.MethodPost)
	r.HandleFunc("/sessions", h.list).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/activate", h.activate).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/messages", h.messages).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", h.delete).Methods(http.MethodDelete)
}

// create handles POST /sessions: a new empty session becomes active and is
// returned along with the refreshed list.
func (h *sessionHandlers) create(w http.ResponseWriter, r *http.Request) {
	id := h.reg.CreateSession()
	_ = utils.JSONWrite(w, http.StatusCreated, struct {
		sessionList
		Created string `json:"created"`
	}{
		sessionList: sessionList{Sessions: h.reg.Sessions(), CurrentSessionID: id},
		Created:     id,
	})
}

// list handles GET /sessions.
func (h *sessionHandlers) list(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, sessionList{
		Sessions:         h.reg.Sessions(),
		CurrentSessionID: h.reg.CurrentSessionID(),
	})
}

// activate handles POST /sessions/{id}/activate. Activating the current
// session is a no-op; unknown ids are a 404.
func (h *sessionHandlers) activate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.reg.Messages(id); !ok {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	h.reg.SwitchSession(id)
	_ = utils.JSONWrite(w, http.StatusOK, sessionList{
		Sessions:         h.reg.Sessions(),
		CurrentSessionID: h.reg.CurrentSessionID(),
	})
}

// messages handles GET /sessions/{id}/messages.
func (h *sessionHandlers) messages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	msgs, ok := h.reg.Messages(id)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		SessionID string           `json:"sessionId"`
		Messages  []models.Message `json:"messages"`
	}{SessionID: id, Messages: msgs})
}

// delete handles DELETE /sessions/{id}?confirm=true. Deletion is
// irreversible, so the confirm parameter is mandatory.
func (h *sessionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		utils.JSONError(w, http.StatusBadRequest, "confirm=true required")
		return
	}
	id := mux.Vars(r)["id"]
	if !h.reg.DeleteSession(id) {
		utils.JSONError(w, http.StatusNotFound, "session not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, sessionList{
		Sessions:         h.reg.Sessions(),
		CurrentSessionID: h.reg.CurrentSessionID(),
	})
}
