package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/giygas/medicamente-cnas/explorer"
	"github.com/giygas/medicamente-cnas/export"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/metrics"
	"github.com/giygas/medicamente-cnas/selection"
	"github.com/giygas/medicamente-cnas/store"
	"github.com/go-chi/chi/v5"
)

// respondWithSessionError maps store and reducer errors to HTTP statuses.
func (h *HTTPHandlerImpl) respondWithSessionError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, explorer.ErrUnknownMedicine):
		h.RespondWithError(w, http.StatusNotFound, "Medicine not found")
	case errors.Is(err, explorer.ErrUnknownAction),
		errors.Is(err, explorer.ErrInvalidAction),
		errors.Is(err, explorer.ErrEmptyNotes),
		errors.Is(err, selection.ErrEmptyName):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, explorer.ErrStaleGeneration):
		h.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled):
		logging.Debug("Request canceled", "session", id)
	default:
		logging.Error("Session operation failed", "session", id, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Session operation failed")
	}
}

// CreateSession starts a new patient session
func (h *HTTPHandlerImpl) CreateSession(w http.ResponseWriter, r *http.Request) {
	ds := h.dataStore.GetDataset()
	state := explorer.NewState(ds.Columns, h.catalog.DefaultVisibleColumns...)

	id, err := h.sessions.Create(r.Context(), state)
	if err != nil {
		h.respondWithSessionError(w, "", err)
		return
	}

	logging.Debug("Session created", "session", id)
	h.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"id":    id,
		"state": state,
	})
}

// GetSession returns the stored state of a session
func (h *HTTPHandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"state": state,
	})
}

// DeleteSession discards a session and everything stored for it
func (h *HTTPHandlerImpl) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyAction runs one reducer action against the session state
func (h *HTTPHandlerImpl) ApplyAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var action explorer.Action
	if !h.decodeJSON(w, r, &action) {
		return
	}

	switch action.Type {
	case explorer.ActionSearch:
		if strings.TrimSpace(action.Value) != "" {
			if err := h.validator.ValidateInput(action.Value); err != nil {
				logging.Warn("Unusual user input", "session", id, "search", action.Value, "error", err)
				h.RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

	case explorer.ActionToggleFacet, explorer.ActionSetSort:
		ds := h.dataStore.GetDataset()
		if action.Column != "" && ds.Len() > 0 {
			if err := h.validator.ValidateColumn(ds, action.Column); err != nil {
				h.RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

	case explorer.ActionSetAgeCategory, explorer.ActionSetCompensationCategory:
		action.Value = h.category(strings.TrimSpace(action.Value))

	case explorer.ActionToggleSelection:
		// Rows are looked up by key; a key missing from the catalog can only deselect.
		if row, found := h.dataStore.GetRow(action.Key); found && action.Key != "" {
			action.Row = row
		}
	}

	if action.Type == explorer.ActionToggleFacet || action.Type == explorer.ActionClearFacet {
		// only values present in the loaded index can be selected
		action.Facets = h.dataStore.GetFacets()
	}

	columns := h.dataStore.GetDataset().Columns
	state, err := h.sessions.Update(r.Context(), id, func(s explorer.State) (explorer.State, error) {
		s = explorer.Reconcile(s, columns, h.catalog.DefaultVisibleColumns...)
		return explorer.Reduce(s, action)
	})
	metrics.ObserveAction(string(action.Type), err)
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"state": state,
	})
}

// ServeSessionMedicines renders the catalog page described by the session state
func (h *HTTPHandlerImpl) ServeSessionMedicines(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}

	ds, ok := h.requireDataset(w)
	if !ok {
		return
	}

	h.RespondWithJSON(w, http.StatusOK, explorer.View(state, ds, h.categories()))
}

// ExportSession renders the printable prescription and notes document
func (h *HTTPHandlerImpl) ExportSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		h.respondWithSessionError(w, id, err)
		return
	}

	doc, err := export.FromState(state, h.now())
	if errors.Is(err, export.ErrNothingToExport) {
		h.RespondWithError(w, http.StatusUnprocessableEntity, "Nothing to export: select a medicine or write notes first")
		return
	}
	if err != nil {
		logging.Error("Failed to build export document", "session", id, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to build document")
		return
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, doc); err != nil {
		logging.Error("Failed to render export document", "session", id, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to render document")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
