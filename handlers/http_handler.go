// Package handlers provides HTTP request handlers for the medicine explorer API.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/giygas/medicamente-cnas/config"
	"github.com/giygas/medicamente-cnas/filter"
	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// maxBodyBytes bounds the JSON bodies the handlers decode.
const maxBodyBytes = 1 << 20

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore interfaces.DataStore
	validator interfaces.DataValidator
	sessions  interfaces.SessionStore
	advisor   interfaces.Advisor
	catalog   *config.Catalog
	health    interfaces.HealthChecker
	now       func() time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// A nil catalog falls back to the embedded one.
func NewHTTPHandler(
	dataStore interfaces.DataStore,
	validator interfaces.DataValidator,
	sessions interfaces.SessionStore,
	advisor interfaces.Advisor,
	catalog *config.Catalog,
	health interfaces.HealthChecker,
) interfaces.HTTPHandler {
	if catalog == nil {
		cat, err := config.LoadCatalog("")
		if err != nil {
			logging.Error("Embedded catalog is invalid", "error", err)
			cat = &config.Catalog{AllCategory: filter.AllCategory}
		}
		catalog = cat
	}

	return &HTTPHandlerImpl{
		dataStore: dataStore,
		validator: validator,
		sessions:  sessions,
		advisor:   advisor,
		catalog:   catalog,
		health:    health,
		now:       time.Now,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if lastUpdated := h.dataStore.GetLastUpdated(); !lastUpdated.IsZero() {
		w.Header().Set("Last-Modified", lastUpdated.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// requireDataset answers 503 while no dataset is loaded. A failed load reports its cause.
func (h *HTTPHandlerImpl) requireDataset(w http.ResponseWriter) (*entities.Dataset, bool) {
	ds := h.dataStore.GetDataset()
	if ds.Len() > 0 {
		return ds, true
	}

	if err := h.dataStore.GetLoadError(); err != nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Medicine data could not be loaded: "+err.Error())
		return nil, false
	}
	h.RespondWithError(w, http.StatusServiceUnavailable, "Medicine data is loading, try again shortly")
	return nil, false
}

// decodeJSON reads a bounded JSON body into v.
func (h *HTTPHandlerImpl) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		logging.Warn("Invalid JSON body", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// categories returns the filter configuration described by the catalog.
func (h *HTTPHandlerImpl) categories() filter.Categories {
	cats := filter.DefaultCategories()
	if h.catalog.AgeColumn != "" {
		cats.AgeColumn = h.catalog.AgeColumn
	}
	if h.catalog.CompensationColumn != "" {
		cats.CompensationColumn = h.catalog.CompensationColumn
	}
	if len(h.catalog.AgeCategories) > 0 {
		cats.AgeTokens = h.catalog.AgeTokens()
	}
	return cats
}

// category maps the catalog's "all" sentinel and the empty value to filter.AllCategory.
func (h *HTTPHandlerImpl) category(id string) string {
	if id == "" || id == h.catalog.AllCategory {
		return filter.AllCategory
	}
	return id
}

// diseaseColumn is the column holding comma separated disease codes.
func (h *HTTPHandlerImpl) diseaseColumn() string {
	if h.catalog.DiseaseCodesColumn != "" {
		return h.catalog.DiseaseCodesColumn
	}
	return entities.ColumnDiseaseCodes
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h.RespondWithJSON(w, code, map[string]any{
		"status": status,
		"data":   details,
		"system": map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}
