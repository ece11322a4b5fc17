package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voxkit-go/voxkit/pkg/core/llm"
	"github.com/voxkit-go/voxkit/pkg/gateway/history"
)

// ConversationsHandler exposes stored conversation state: history read
// and clear, and the persona selector for upcoming live sessions.
type ConversationsHandler struct {
	Store  history.Store
	Logger *slog.Logger
}

func (h ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.logErr("get conversation", err)
		writeError(w, http.StatusInternalServerError, "history store unavailable")
		return
	}
	if conv == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h ConversationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.logErr("delete conversation", err)
		writeError(w, http.StatusInternalServerError, "history store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "id": id})
}

type personaResponse struct {
	ID       string   `json:"id"`
	Persona  string   `json:"persona"`
	Personas []string `json:"personas"`
}

func (h ConversationsHandler) GetPersona(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conv, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.logErr("get conversation", err)
		writeError(w, http.StatusInternalServerError, "history store unavailable")
		return
	}
	persona := llm.DefaultPersona
	if conv != nil && conv.Persona != "" {
		persona = conv.Persona
	}
	writeJSON(w, http.StatusOK, personaResponse{ID: id, Persona: persona, Personas: llm.Personas()})
}

type setPersonaRequest struct {
	Persona string `json:"persona"`
}

// SetPersona stores a persona for the session ID. Setting it before the
// live websocket connects changes the voice of the whole session.
func (h ConversationsHandler) SetPersona(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	persona := strings.TrimSpace(req.Persona)
	if !llm.ValidPersona(persona) {
		writeError(w, http.StatusBadRequest, "unknown persona; valid: "+strings.Join(llm.Personas(), ", "))
		return
	}

	conv, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.logErr("get conversation", err)
		writeError(w, http.StatusInternalServerError, "history store unavailable")
		return
	}
	if conv == nil {
		conv = &history.Conversation{ID: id}
	}
	conv.Persona = persona
	conv.UpdatedAt = time.Now()
	if err := h.Store.Save(r.Context(), conv); err != nil {
		h.logErr("save conversation", err)
		writeError(w, http.StatusInternalServerError, "history store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, personaResponse{ID: id, Persona: persona, Personas: llm.Personas()})
}

func (h ConversationsHandler) logErr(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, "error", err)
	}
}
