package explorer

import (
	"github.com/giygas/medicamente-cnas/filter"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/giygas/medicamente-cnas/view"
)

// Result is one rendered page of the filtered catalog.
type Result struct {
	Table      view.Table `json:"table"`
	Page       int        `json:"page"`
	PageSize   string     `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
	TotalItems int        `json:"totalItems"`
	Selected   []string   `json:"selected"`
}

// View runs filter, sort, pagination and projection for state over ds.
func View(state State, ds *entities.Dataset, cats filter.Categories) Result {
	var rows []entities.Row
	var columns []string
	if ds != nil {
		rows = ds.Rows
		columns = ds.Columns
	}

	filtered := filter.Apply(rows, state.Filter, cats)
	if state.Sort.Column != "" {
		filtered = filter.Sort(filtered, state.Sort.Column, state.Sort.Direction)
	}
	page := state.Pager.Apply(filtered)

	cols := state.Columns.Reconcile(columns)
	table := view.Project(page.Items, cols.Headers(columns))

	return Result{
		Table:      table,
		Page:       page.Page,
		PageSize:   page.PageSize.String(),
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
		Selected:   state.Selection.Keys(),
	}
}
