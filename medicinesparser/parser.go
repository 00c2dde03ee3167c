package medicinesparser

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// Compile-time check to ensure MedicinesParser implements Parser interface
var _ interfaces.Parser = (*MedicinesParser)(nil)

// Sources names where each document is read from.
type Sources struct {
	Medicines string
	Diseases  string
	Facets    string // optional
}

// MedicinesParser implements the Parser interface over configured sources.
type MedicinesParser struct {
	sources    Sources
	downloader *Downloader
	now        func() time.Time
}

// NewMedicinesParser creates a parser reading from sources.
func NewMedicinesParser(sources Sources, timeout time.Duration) *MedicinesParser {
	return &MedicinesParser{
		sources:    sources,
		downloader: NewDownloader(timeout),
		now:        time.Now,
	}
}

// LoadDataset downloads and parses the medicines list.
func (p *MedicinesParser) LoadDataset(ctx context.Context) (*entities.Dataset, error) {
	start := p.now()

	text, err := p.downloader.Fetch(ctx, p.sources.Medicines)
	if err != nil {
		return nil, err
	}

	ds := ParseCSV(text)
	ds.LoadedAt = p.now()

	if !ds.HasColumn(entities.ColumnCode) {
		logging.Warn("Medicines source has no code column, selection will not work", "source", p.sources.Medicines)
	}

	logging.Info("Medicines parsed",
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"duration", time.Since(start))
	return ds, nil
}

// LoadDiseases downloads the disease code table.
func (p *MedicinesParser) LoadDiseases(ctx context.Context) (map[string]string, error) {
	text, err := p.downloader.Fetch(ctx, p.sources.Diseases)
	if err != nil {
		return nil, err
	}

	diseases := ParseDiseases(text)
	logging.Info("Diseases parsed", "count", len(diseases))
	return diseases, nil
}

// LoadFacets reads the precomputed facet file. It returns nil, nil when none is configured.
func (p *MedicinesParser) LoadFacets(ctx context.Context) (map[string][]string, error) {
	if p.sources.Facets == "" {
		return nil, nil
	}

	text, err := p.downloader.Fetch(ctx, p.sources.Facets)
	if err != nil {
		return nil, err
	}

	facets, err := ParseFacetFile([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("facets from %s: %w", p.sources.Facets, err)
	}
	logging.Info("Precomputed facets loaded", "columns", len(facets))
	return facets, nil
}
