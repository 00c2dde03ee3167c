// Package scheduler keeps the in-memory dataset fresh. It performs the initial
// load, reloads the published documents every day and retries after failures,
// so a broken source never discards data that was already loaded.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/medicamente-cnas/facets"
	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/metrics"
	"github.com/giygas/medicamente-cnas/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	defaultRefreshAt = "05:00"
	retryInterval    = 15 * time.Minute
	loadTimeout      = 5 * time.Minute
	staleAfter       = 25 * time.Hour
)

// Pruner removes persisted sessions that were not touched since cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler handles data updates and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	validator interfaces.DataValidator
	scheduler *gocron.Scheduler
	refreshAt string
	exclude   []string // columns never faceted

	pruner     Pruner
	sessionTTL time.Duration
}

// NewScheduler creates a scheduler reloading the data every day at refreshAt (HH:MM).
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, refreshAt string) *Scheduler {
	if refreshAt == "" {
		refreshAt = defaultRefreshAt
	}
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		validator: validation.NewDataValidator(),
		scheduler: gocron.NewScheduler(time.Local),
		refreshAt: refreshAt,
		exclude:   facets.DefaultExclude,
	}
}

// WithFacetExclude sets the columns left out of the facet index.
func (s *Scheduler) WithFacetExclude(columns ...string) *Scheduler {
	if len(columns) > 0 {
		s.exclude = columns
	}
	return s
}

// WithSessionPruning also deletes sessions idle for longer than ttl, once a day.
func (s *Scheduler) WithSessionPruning(p Pruner, ttl time.Duration) *Scheduler {
	s.pruner = p
	s.sessionTTL = ttl
	return s
}

// Start loads the data once, then schedules the refresh jobs. A failed initial load
// is recorded in the data store and retried; it does not prevent the server from starting.
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
	}

	if _, err := s.scheduler.Every(1).Day().At(s.refreshAt).Do(s.refresh); err != nil {
		logging.Error("Failed to schedule updates", "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	if _, err := s.scheduler.Every(retryInterval).WaitForSchedule().Do(s.retryFailedLoad); err != nil {
		return fmt.Errorf("failed to schedule retries: %w", err)
	}

	if _, err := s.scheduler.Every(1).Hour().WaitForSchedule().Do(s.checkStaleness); err != nil {
		return fmt.Errorf("failed to schedule health monitoring: %w", err)
	}

	if s.pruner != nil && s.sessionTTL > 0 {
		if _, err := s.scheduler.Every(1).Day().At(s.refreshAt).Do(s.pruneSessions); err != nil {
			return fmt.Errorf("failed to schedule session pruning: %w", err)
		}
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "refresh_at", s.refreshAt)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) refresh() {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to update data", "error", err)
	}
}

func (s *Scheduler) retryFailedLoad() {
	if s.dataStore.GetLoadError() == nil {
		return
	}
	logging.Info("Retrying failed data load")
	s.refresh()
}

// updateData loads every document and swaps them into the data store at once.
// On failure the previous data is kept and the error is recorded.
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	logging.Info("Starting data update", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	ds, err := s.parser.LoadDataset(ctx)
	if err != nil {
		s.dataStore.SetLoadError(err)
		metrics.ObserveDatasetLoad(0, 0, time.Time{}, err)
		return fmt.Errorf("failed to load medicines: %w", err)
	}

	// a missing disease table only degrades the disease column
	diseases, err := s.parser.LoadDiseases(ctx)
	if err != nil {
		logging.Warn("Failed to load disease codes, keeping previous table", "error", err)
		diseases = s.dataStore.GetDiseases()
	}

	precomputed, facetErr := s.parser.LoadFacets(ctx)
	if facetErr != nil {
		logging.Warn("Precomputed facets unavailable, deriving from dataset", "error", facetErr)
	}
	index, fromFile := facets.Resolve(precomputed, facetErr, ds, s.exclude...)

	s.logQuality(s.validator.ReportDataQuality(ds, diseases))

	s.dataStore.UpdateData(ds, index, diseases)
	metrics.ObserveDatasetLoad(ds.Len(), len(index), ds.LoadedAt, nil)

	logging.Info("Data update completed",
		"duration", time.Since(start).String(),
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"facet_columns", len(index),
		"facets_from_file", fromFile,
		"diseases", len(diseases))

	return nil
}

func (s *Scheduler) logQuality(report *interfaces.DataQualityReport) {
	if len(report.MissingColumns) > 0 {
		logging.Warn("Dataset is missing expected columns", "columns", report.MissingColumns)
	}
	if len(report.DuplicateCodes) > 0 {
		logging.Warn("Duplicate medicine codes detected",
			"total", len(report.DuplicateCodes),
			"codes", report.DuplicateCodes)
	}
	if report.RowsWithoutCode > 0 || report.RowsWithoutName > 0 {
		logging.Warn("Rows with missing identifiers",
			"without_code", report.RowsWithoutCode,
			"without_name", report.RowsWithoutName)
	}
	if report.UnknownDiseaseCount > 0 {
		logging.Warn("Unknown disease codes referenced",
			"count", report.UnknownDiseaseCount,
			"codes", report.UnknownDiseaseCodes)
	}
}

func (s *Scheduler) checkStaleness() {
	lastUpdate := s.dataStore.GetLastUpdated()
	if lastUpdate.IsZero() {
		logging.Warn("No data has been loaded yet", "error", s.dataStore.GetLoadError())
		return
	}
	if time.Since(lastUpdate) > staleAfter {
		logging.Warn("Data hasn't been updated in over 25 hours", "last_update", lastUpdate)
	}
}

func (s *Scheduler) pruneSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.pruner.Prune(ctx, time.Now().Add(-s.sessionTTL))
	if err != nil {
		logging.Error("Failed to prune sessions", "error", err)
		return
	}
	if removed > 0 {
		logging.Info("Pruned idle sessions", "rows", removed)
	}
}
