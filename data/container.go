// Package data provides the thread-safe in-memory copy of the medicines dataset.
// Every refresh replaces all values with atomic stores so readers never block
// and never observe a half-built dataset.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/medicamente-cnas/facets"
	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// loadState wraps the last load error so atomic.Value always sees one concrete type.
type loadState struct {
	err error
}

// DataContainer holds all the data with atomic pointers for zero-downtime updates
type DataContainer struct {
	dataset         atomic.Value // *entities.Dataset
	facets          atomic.Value // facets.Index
	diseases        atomic.Value // map[string]string
	rowsByCode      atomic.Value // map[string]entities.Row
	loadErr         atomic.Value // loadState
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.dataset.Store(&entities.Dataset{})
	dc.facets.Store(facets.Index{})
	dc.diseases.Store(make(map[string]string))
	dc.rowsByCode.Store(make(map[string]entities.Row))
	dc.loadErr.Store(loadState{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetDataset returns the current dataset, never nil.
func (dc *DataContainer) GetDataset() *entities.Dataset {
	if v := dc.dataset.Load(); v != nil {
		if ds, ok := v.(*entities.Dataset); ok && ds != nil {
			return ds
		}
	}

	logging.Warn("Dataset is empty or invalid")
	return &entities.Dataset{}
}

// GetFacets returns the facet index of the current dataset
func (dc *DataContainer) GetFacets() facets.Index {
	if v := dc.facets.Load(); v != nil {
		if idx, ok := v.(facets.Index); ok {
			return idx
		}
	}

	logging.Warn("Facet index is empty or invalid")
	return facets.Index{}
}

// GetDiseases returns the disease code table
func (dc *DataContainer) GetDiseases() map[string]string {
	if v := dc.diseases.Load(); v != nil {
		if diseases, ok := v.(map[string]string); ok {
			return diseases
		}
	}

	logging.Warn("Disease table is empty or invalid")
	return make(map[string]string)
}

// GetRow looks a dataset row up by its medicine code.
func (dc *DataContainer) GetRow(code string) (entities.Row, bool) {
	if v := dc.rowsByCode.Load(); v != nil {
		if rows, ok := v.(map[string]entities.Row); ok {
			row, found := rows[code]
			return row, found
		}
	}
	return nil, false
}

// GetLastUpdated returns the timestamp of the last successful update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// GetLoadError returns the error of the last load attempt, nil after a success.
func (dc *DataContainer) GetLoadError() error {
	if v := dc.loadErr.Load(); v != nil {
		if state, ok := v.(loadState); ok {
			return state.err
		}
	}
	return nil
}

// SetLoadError records a failed load. Previously loaded data stays available.
func (dc *DataContainer) SetLoadError(err error) {
	dc.loadErr.Store(loadState{err: err})
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the dataset, its facet index and the disease table.
// A nil argument is stored as its empty value.
func (dc *DataContainer) UpdateData(ds *entities.Dataset, index facets.Index, diseases map[string]string) {
	if ds == nil {
		ds = &entities.Dataset{}
	}
	if index == nil {
		index = facets.Index{}
	}
	if diseases == nil {
		diseases = make(map[string]string)
	}

	rows := make(map[string]entities.Row, len(ds.Rows))
	for _, row := range ds.Rows {
		code := row.Code()
		if code == "" {
			continue
		}
		// first occurrence wins, matching the order shown to users
		if _, exists := rows[code]; !exists {
			rows[code] = row
		}
	}

	dc.dataset.Store(ds)
	dc.facets.Store(index)
	dc.diseases.Store(diseases)
	dc.rowsByCode.Store(rows)
	dc.loadErr.Store(loadState{})
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
