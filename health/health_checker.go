// Package health reports whether the explorer has usable data.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/medicamente-cnas/interfaces"
)

const (
	staleAfter  = 48 * time.Hour
	pingTimeout = 2 * time.Second
)

// Pinger is implemented by the session store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	store     Pinger
	refreshAt string
	now       func() time.Time
}

// NewHealthChecker creates a health checker. store may be nil.
func NewHealthChecker(dataStore interfaces.DataStore, refreshAt string, store Pinger) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		store:     store,
		refreshAt: refreshAt,
		now:       time.Now,
	}
}

// HealthCheck returns the status used by the /health endpoint. Without rows the
// service cannot answer anything and is unhealthy; stale data, a failed refresh or
// an unreachable session store only degrade it.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	ds := h.dataStore.GetDataset()
	lastUpdate := h.dataStore.GetLastUpdated()
	loadErr := h.dataStore.GetLoadError()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	var storeErr error
	if h.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		storeErr = h.store.Ping(ctx)
		cancel()
	}

	switch {
	case ds.Len() == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case loadErr != nil, storeErr != nil, dataAge > staleAfter:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"rows":        ds.Len(),
		"columns":     len(ds.Columns),
		"diseases":    len(h.dataStore.GetDiseases()),
		"is_updating": isUpdating,
		"next_update": h.CalculateNextUpdate().Format(time.RFC3339),
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if loadErr != nil {
		data["load_error"] = loadErr.Error()
	}
	if storeErr != nil {
		data["store_error"] = storeErr.Error()
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(h.now().Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next daily refresh at the configured HH:MM.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()

	at, err := time.Parse("15:04", h.refreshAt)
	if err != nil {
		at = time.Date(0, 1, 1, 5, 0, 0, 0, time.UTC)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
