package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/giygas/medicamente-cnas/advisor"
	"github.com/giygas/medicamente-cnas/explorer"
	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure the model client implements Advisor
var _ interfaces.Advisor = (*advisor.Advisor)(nil)

const maxChatMessages = 50

type chatRequest struct {
	Messages []advisor.Message `json:"messages"`
}

// Chat answers a conversation about the catalog. Model failures still answer 200
// with an apology so the conversation can continue.
func (h *HTTPHandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if len(req.Messages) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "messages cannot be empty")
		return
	}
	if len(req.Messages) > maxChatMessages {
		req.Messages = req.Messages[len(req.Messages)-maxChatMessages:]
	}
	if strings.TrimSpace(req.Messages[len(req.Messages)-1].Content) == "" {
		h.RespondWithError(w, http.StatusBadRequest, "last message cannot be empty")
		return
	}

	reply, err := h.advisor.Chat(r.Context(), req.Messages, h.dataStore.GetDataset())
	if err != nil {
		logging.Warn("Chat completion failed", "error", err)
	}
	h.RespondWithJSON(w, http.StatusOK, map[string]any{"message": reply})
}

// RequestAdvice asks the model for advice on the patient notes and stores it on
// the session, unless a newer request or a new patient superseded it meanwhile.
func (h *HTTPHandlerImpl) RequestAdvice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.advisor.Enabled() {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	// A rejected request must not supersede one already in flight.
	var gen uint64
	state, err := h.sessions.Update(r.Context(), id, func(s explorer.State) (explorer.State, error) {
		if strings.TrimSpace(s.Notes.Patient) == "" {
			return s, fmt.Errorf("%w: patient notes", explorer.ErrEmptyNotes)
		}
		next, g := explorer.BeginAdvice(s)
		gen = g
		return next, nil
	})
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}

	advice, err := h.advisor.Advice(r.Context(), state.Notes.Patient)
	if err != nil {
		logging.Warn("Advice completion failed", "session", id, "error", err)
		advice = []string{}
	}

	state, err = h.sessions.Update(r.Context(), id, func(s explorer.State) (explorer.State, error) {
		return explorer.CommitAdvice(s, gen, advice)
	})
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"advice": state.Advice,
	})
}

// FormatNotes rewrites the doctor notes as a bullet list and stores the result, unless
// the notes were edited or a new patient started while the model was answering.
func (h *HTTPHandlerImpl) FormatNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.advisor.Enabled() {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	var (
		gen   uint64
		notes string
	)
	_, err := h.sessions.Update(r.Context(), id, func(s explorer.State) (explorer.State, error) {
		next, g, text, err := explorer.BeginNotesFormat(s)
		gen, notes = g, text
		return next, err
	})
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}

	formatted, err := h.advisor.FormatNotes(r.Context(), notes)
	if err != nil {
		logging.Warn("Notes formatting failed", "session", id, "error", err)
		h.RespondWithError(w, http.StatusBadGateway, "Failed to format notes")
		return
	}

	state, err := h.sessions.Update(r.Context(), id, func(s explorer.State) (explorer.State, error) {
		return explorer.CommitFormattedNotes(s, gen, formatted)
	})
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"notes": state.Notes,
	})
}
