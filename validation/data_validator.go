// Package validation checks request input and the quality of loaded datasets.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/giygas/medicamente-cnas/view"
)

const (
	maxSearchLength = 100
	maxSearchWords  = 10
	maxReportItems  = 10
)

var (
	// Search input: letters (Romanian diacritics included), digits, spaces and the
	// punctuation found in medicine names and doses.
	inputRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.,\+'/%()]+$`)

	// Substring patterns are cheaper than regex for these checks.
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "@import",
		"union select", "drop table", "delete from", "insert into",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

// requiredColumns are the columns the explorer's filters and selection read.
var requiredColumns = []string{
	entities.ColumnName,
	entities.ColumnCode,
	entities.ColumnCompensation,
	entities.ColumnAgeCategory,
}

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ReportDataQuality inspects a dataset against the disease table. It never fails:
// the dataset is served as loaded and the report is only logged.
func (v *DataValidatorImpl) ReportDataQuality(ds *entities.Dataset, diseases map[string]string) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateCodes:      []string{},
		UnknownDiseaseCodes: []string{},
		MissingColumns:      []string{},
	}
	if ds == nil {
		report.MissingColumns = append(report.MissingColumns, requiredColumns...)
		return report
	}

	report.TotalRows = ds.Len()
	for _, col := range requiredColumns {
		if !ds.HasColumn(col) {
			report.MissingColumns = append(report.MissingColumns, col)
		}
	}

	seen := make(map[string]bool, len(ds.Rows))
	duplicated := make(map[string]bool)
	unknown := make(map[string]bool)
	checkDiseases := len(diseases) > 0 && ds.HasColumn(entities.ColumnDiseaseCodes)

	for _, row := range ds.Rows {
		if strings.TrimSpace(row.Name()) == "" {
			report.RowsWithoutName++
		}

		code := strings.TrimSpace(row.Code())
		if code == "" {
			report.RowsWithoutCode++
		} else if seen[code] {
			if !duplicated[code] {
				duplicated[code] = true
				report.DuplicateCodes = append(report.DuplicateCodes, code)
			}
		} else {
			seen[code] = true
		}

		if checkDiseases {
			for _, d := range view.DiseasesFor(row.Get(entities.ColumnDiseaseCodes), diseases) {
				if _, ok := diseases[d.Code]; !ok && !unknown[d.Code] {
					unknown[d.Code] = true
				}
			}
		}
	}

	report.UnknownDiseaseCount = len(unknown)
	for code := range unknown {
		report.UnknownDiseaseCodes = append(report.UnknownDiseaseCodes, code)
	}
	sort.Strings(report.UnknownDiseaseCodes)
	if len(report.UnknownDiseaseCodes) > maxReportItems {
		report.UnknownDiseaseCodes = report.UnknownDiseaseCodes[:maxReportItems]
	}

	return report
}

// ValidateInput validates a free-text search term. Callers skip validation for
// the empty term, which means "no search".
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("input is not valid UTF-8")
	}

	if utf8.RuneCountInString(input) > maxSearchLength {
		return fmt.Errorf("input too long: maximum %d characters", maxSearchLength)
	}

	if len(strings.Fields(input)) > maxSearchWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxSearchWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	for _, r := range input {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return fmt.Errorf("input contains control characters")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . , + ' / %% ( ) are allowed")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateColumn checks that column was declared by the dataset header.
func (v *DataValidatorImpl) ValidateColumn(ds *entities.Dataset, column string) error {
	if strings.TrimSpace(column) == "" {
		return fmt.Errorf("column cannot be empty")
	}
	if !ds.HasColumn(column) {
		return fmt.Errorf("unknown column %q", column)
	}
	return nil
}

// hasExcessiveRepetition reports the same rune repeated more than 10 times in a row.
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for i, r := range input {
		if i > 0 && r == prev {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}
