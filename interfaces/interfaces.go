// Package interfaces defines the core abstractions shared by the loader,
// the scheduler and the HTTP layer of the medicine explorer.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/medicamente-cnas/advisor"
	"github.com/giygas/medicamente-cnas/explorer"
	"github.com/giygas/medicamente-cnas/facets"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// DataQualityReport summarises issues found in a freshly loaded dataset.
type DataQualityReport struct {
	TotalRows           int
	DuplicateCodes      []string
	RowsWithoutName     int
	RowsWithoutCode     int
	UnknownDiseaseCodes []string // first 10, sorted
	UnknownDiseaseCount int
	MissingColumns      []string
}

// DataStore defines the contract for the in-memory dataset.
// Readers never block; a refresh swaps every value at once.
type DataStore interface {
	GetDataset() *entities.Dataset
	GetFacets() facets.Index
	GetDiseases() map[string]string
	GetRow(code string) (entities.Row, bool)
	GetLastUpdated() time.Time
	GetLoadError() error
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(ds *entities.Dataset, index facets.Index, diseases map[string]string)
	SetLoadError(err error)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for reading the published documents.
type Parser interface {
	// LoadDataset downloads and parses the medicines list.
	LoadDataset(ctx context.Context) (*entities.Dataset, error)

	// LoadDiseases downloads the disease code table.
	LoadDiseases(ctx context.Context) (map[string]string, error)

	// LoadFacets reads the optional precomputed facet file.
	LoadFacets(ctx context.Context) (map[string][]string, error)
}

// Scheduler manages the periodic dataset refresh.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for the API endpoints.
type HTTPHandler interface {
	ServeMedicines(w http.ResponseWriter, r *http.Request)
	ServeMedicine(w http.ResponseWriter, r *http.Request)
	ServeColumns(w http.ResponseWriter, r *http.Request)
	ServeFacets(w http.ResponseWriter, r *http.Request)
	ServeFacetValues(w http.ResponseWriter, r *http.Request)
	ServeCategories(w http.ResponseWriter, r *http.Request)
	ServeDiseases(w http.ResponseWriter, r *http.Request)

	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	DeleteSession(w http.ResponseWriter, r *http.Request)
	ApplyAction(w http.ResponseWriter, r *http.Request)
	ServeSessionMedicines(w http.ResponseWriter, r *http.Request)
	ExportSession(w http.ResponseWriter, r *http.Request)
	RequestAdvice(w http.ResponseWriter, r *http.Request)
	FormatNotes(w http.ResponseWriter, r *http.Request)
	Chat(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports the state of the loaded data.
type HealthChecker interface {
	// HealthCheck returns the status, its details and the HTTP status to answer with.
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled refresh.
	CalculateNextUpdate() time.Time
}

// DataValidator checks user input and loaded data.
type DataValidator interface {
	// ReportDataQuality inspects a dataset against the disease table.
	ReportDataQuality(ds *entities.Dataset, diseases map[string]string) *DataQualityReport

	// ValidateInput validates free-text search input.
	ValidateInput(input string) error

	// ValidateColumn checks that a column exists in the dataset.
	ValidateColumn(ds *entities.Dataset, column string) error
}

// SessionStore persists explorer state per session.
type SessionStore interface {
	Create(ctx context.Context, initial explorer.State) (string, error)
	Load(ctx context.Context, id string) (explorer.State, error)
	Update(ctx context.Context, id string, fn func(explorer.State) (explorer.State, error)) (explorer.State, error)
	Delete(ctx context.Context, id string) error
}

// Advisor is the language-model client used by the assistant endpoints.
type Advisor interface {
	Enabled() bool
	Chat(ctx context.Context, history []advisor.Message, ds *entities.Dataset) (advisor.Message, error)
	Advice(ctx context.Context, notes string) ([]string, error)
	FormatNotes(ctx context.Context, notes string) (string, error)
}
