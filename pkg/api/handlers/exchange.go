package handlers

import (
	"context"
	"errors"
	"net/http"

	"carechat/pkg/assessment"
	"carechat/pkg/exchange"
	"carechat/pkg/logger"
	"carechat/pkg/models"
	"carechat/pkg/registry"
	"carechat/pkg/utils"

	"github.com/gorilla/mux"
)

// Exchanger sends one question to the remote assistant and returns reply
// text. Implementations map their own failures to presentable text; an error
// here means the call could not be attempted at all.
type Exchanger interface {
	Send(ctx context.Context, question, sessionID string) (string, error)
}

type exchangeHandlers struct {
	reg      *registry.Registry
	ex       Exchanger
	maxBytes int64
}

// RegisterExchange registers the exchange and reset routes.
func RegisterExchange(r *mux.Router, reg *registry.Registry, ex Exchanger, maxBytes int64) {
	h := &exchangeHandlers{reg: reg, ex: ex, maxBytes: maxBytes}
	r.HandleFunc("/exchange", h.exchange).Methods(http.MethodPost)
	r.HandleFunc("/reset", h.reset).Methods(http.MethodPost)
}

type exchangeRequest struct {
	Text string `json:"text"`
}

// exchangeResponse carries both transcript entries and the classified view
// of the assistant reply. AssistantMessage is null when the session was
// deleted while the exchange was in flight.
type exchangeResponse struct {
	SessionID        string          `json:"sessionId"`
	UserMessage      *models.Message `json:"userMessage"`
	AssistantMessage *models.Message `json:"assistantMessage"`
	View             assessment.View `json:"view"`
}

// exchange handles POST /exchange: append the user's text, call the remote
// service, file the reply (or a fallback) to the session that was current
// when the exchange began.
func (h *exchangeHandlers) exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := utils.DecodeJSONBody(w, r, &req, h.maxBytes); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	userMsg, sessionID, err := h.reg.BeginSubmit(req.Text)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, registry.ErrExchangeInFlight) {
			status = http.StatusConflict
		}
		utils.JSONError(w, status, err.Error())
		return
	}

	reply, err := h.ex.Send(r.Context(), req.Text, sessionID)

	var assistantMsg *models.Message
	if err != nil {
		logger.Error("exchange_send_failed", "err", err.Error(), "session", sessionID)
		assistantMsg = h.reg.AppendErrorPlaceholder(sessionID, req.Text, exchange.FallbackGeneric)
	} else {
		assistantMsg = h.reg.AppendAssistantReply(sessionID, req.Text, reply)
	}

	resp := exchangeResponse{SessionID: sessionID, UserMessage: userMsg, AssistantMessage: assistantMsg}
	if assistantMsg != nil {
		resp.View = assessment.Render(assessment.Classify(assistantMsg.Content))
	}
	_ = utils.JSONWrite(w, http.StatusOK, resp)
}

// reset handles POST /reset: drop all conversations and start over with a
// single fresh session.
func (h *exchangeHandlers) reset(w http.ResponseWriter, r *http.Request) {
	id := h.reg.Reset()
	_ = utils.JSONWrite(w, http.StatusOK, sessionList{
		Sessions:         h.reg.Sessions(),
		CurrentSessionID: id,
	})
}
