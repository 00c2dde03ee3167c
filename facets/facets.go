// Package facets builds the column → distinct value index used for multi-select filtering
// and tracks which values are selected.
package facets

import (
	"slices"
	"sort"
	"strings"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// Index maps a column to its distinct values and whether each one is selected.
type Index map[string]map[string]bool

// DefaultExclude lists columns that never get a facet.
var DefaultExclude = []string{entities.ColumnName}

// Build derives the index from the dataset: every distinct non-empty value of every
// column not excluded, unselected.
func Build(ds *entities.Dataset, exclude ...string) Index {
	idx := make(Index)
	if ds == nil {
		return idx
	}
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}

	for _, column := range ds.Columns {
		if slices.Contains(exclude, column) {
			continue
		}
		idx[column] = make(map[string]bool)
	}

	for _, row := range ds.Rows {
		for column, values := range idx {
			if v := row[column]; v != "" {
				values[v] = false
			}
		}
	}

	return idx
}

// FromPrecomputed turns a column → values listing into an index of the same shape as Build.
func FromPrecomputed(precomputed map[string][]string, exclude ...string) Index {
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}

	idx := make(Index, len(precomputed))
	for column, values := range precomputed {
		if slices.Contains(exclude, column) {
			continue
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				set[v] = false
			}
		}
		idx[column] = set
	}
	return idx
}

// Resolve prefers the precomputed listing and falls back to deriving from the dataset
// when it is absent or failed to load.
func Resolve(precomputed map[string][]string, loadErr error, ds *entities.Dataset, exclude ...string) (Index, bool) {
	if loadErr == nil && len(precomputed) > 0 {
		return FromPrecomputed(precomputed, exclude...), true
	}
	return Build(ds, exclude...), false
}

// Clone deep-copies the index.
func (idx Index) Clone() Index {
	out := make(Index, len(idx))
	for column, values := range idx {
		cp := make(map[string]bool, len(values))
		for v, sel := range values {
			cp[v] = sel
		}
		out[column] = cp
	}
	return out
}

// Toggle flips a value's selection. Unknown columns or values are ignored.
func (idx Index) Toggle(column, value string) Index {
	values, ok := idx[column]
	if !ok {
		return idx
	}
	if _, ok := values[value]; !ok {
		return idx
	}
	out := idx.Clone()
	out[column][value] = !values[value]
	return out
}

// Set selects exactly the given values of a column; unknown values are skipped.
func (idx Index) Set(column string, selected []string) Index {
	if _, ok := idx[column]; !ok {
		return idx
	}
	out := idx.Clone()
	for v := range out[column] {
		out[column][v] = false
	}
	for _, v := range selected {
		if _, ok := out[column][v]; ok {
			out[column][v] = true
		}
	}
	return out
}

// Clear deselects every value of a column.
func (idx Index) Clear(column string) Index {
	return idx.Set(column, nil)
}

// ClearAll deselects every value of every column.
func (idx Index) ClearAll() Index {
	out := idx.Clone()
	for _, values := range out {
		for v := range values {
			values[v] = false
		}
	}
	return out
}

// WithSelection returns a copy with exactly the given column → values selected.
// Columns and values the index does not know are dropped.
func (idx Index) WithSelection(selected map[string][]string) Index {
	out := idx.ClearAll()
	for column, values := range selected {
		set, ok := out[column]
		if !ok {
			continue
		}
		for _, v := range values {
			if _, ok := set[v]; ok {
				set[v] = true
			}
		}
	}
	return out
}

// Selected returns the selected values of a column, sorted.
func (idx Index) Selected(column string) []string {
	var out []string
	for v, sel := range idx[column] {
		if sel {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Selection returns column → selected values for every column with at least one selection.
func (idx Index) Selection() map[string][]string {
	out := make(map[string][]string)
	for _, column := range idx.ActiveColumns() {
		out[column] = idx.Selected(column)
	}
	return out
}

// ActiveColumns lists columns with at least one selected value, sorted.
func (idx Index) ActiveColumns() []string {
	var out []string
	for column, values := range idx {
		for _, sel := range values {
			if sel {
				out = append(out, column)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Columns lists the faceted columns, sorted.
func (idx Index) Columns() []string {
	out := make([]string, 0, len(idx))
	for column := range idx {
		out = append(out, column)
	}
	sort.Strings(out)
	return out
}

// Values lists a column's values containing term (case-insensitive), sorted.
func (idx Index) Values(column, term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	var out []string
	for v := range idx[column] {
		if term == "" || strings.Contains(strings.ToLower(v), term) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
