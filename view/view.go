// Package view decides which columns are shown and projects rows into a table.
package view

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// DefaultVisible are shown on first load; the disease codes column is opt-in.
var DefaultVisible = []string{
	entities.ColumnName,
	entities.ColumnSubstance,
	entities.ColumnCompensation,
	entities.ColumnCode,
}

// Columns maps a column name to its visibility.
type Columns map[string]bool

// Defaults marks the default columns visible among all, everything else hidden.
func Defaults(all []string, visible ...string) Columns {
	if len(visible) == 0 {
		visible = DefaultVisible
	}
	cols := make(Columns, len(all))
	for _, c := range all {
		cols[c] = slices.Contains(visible, c)
	}
	return cols
}

// Toggle flips the visibility of a known column.
func (c Columns) Toggle(column string) Columns {
	if _, ok := c[column]; !ok {
		return c
	}
	out := c.clone()
	out[column] = !c[column]
	return out
}

func (c Columns) clone() Columns {
	out := make(Columns, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Visible lists visible columns, sorted. Use Headers for display order.
func (c Columns) Visible() []string {
	var out []string
	for k, v := range c {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Headers returns the visible columns in dataset order.
func (c Columns) Headers(all []string) []string {
	out := make([]string, 0, len(all))
	for _, col := range all {
		if c[col] {
			out = append(out, col)
		}
	}
	return out
}

// Reconcile rebuilds the set when the dataset columns changed: unknown columns are dropped,
// new ones start hidden, and an empty or fresh set falls back to the defaults.
func (c Columns) Reconcile(all []string, visible ...string) Columns {
	if len(c) == 0 {
		return Defaults(all, visible...)
	}

	out := make(Columns, len(all))
	shown := false
	for _, col := range all {
		out[col] = c[col]
		shown = shown || out[col]
	}
	if !shown {
		return Defaults(all, visible...)
	}
	return out
}

// Table is a projected page of rows.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Keys    []string   `json:"keys"`
}

// Project renders rows restricted to headers.
func Project(rows []entities.Row, headers []string) Table {
	t := Table{
		Headers: headers,
		Rows:    make([][]string, len(rows)),
		Keys:    make([]string, len(rows)),
	}
	for i, row := range rows {
		cells := make([]string, len(headers))
		for j, h := range headers {
			cells[j] = row[h]
		}
		t.Rows[i] = cells
		t.Keys[i] = row.Code()
	}
	return t
}

// DiseasesFor resolves a disease codes cell against the code table.
// Quotes are stripped, codes are comma separated; unknown codes get a placeholder name.
func DiseasesFor(cell string, lookup map[string]string) []entities.Disease {
	if cell == "" || len(lookup) == 0 {
		return []entities.Disease{}
	}

	out := []entities.Disease{}
	for _, code := range strings.Split(strings.ReplaceAll(cell, `"`, ""), ",") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		name, ok := lookup[code]
		if !ok {
			name = fmt.Sprintf("Boală necunoscută (%s)", code)
		}
		out = append(out, entities.Disease{Code: code, Name: name})
	}
	return out
}
