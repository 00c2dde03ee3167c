// Package explorer holds the per-patient session state and the reducers that change it.
package explorer

import (
	"github.com/giygas/medicamente-cnas/filter"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/giygas/medicamente-cnas/pager"
	"github.com/giygas/medicamente-cnas/selection"
	"github.com/giygas/medicamente-cnas/view"
)

// Notes are the free-text notes of the current consultation.
type Notes struct {
	Patient string `json:"patient"`
	Doctor  string `json:"doctor"`
}

// HasContent reports whether either note has non-blank text.
func (n Notes) HasContent() bool {
	return trimmed(n.Patient) != "" || trimmed(n.Doctor) != ""
}

// Sort is the optional ordering of the filtered rows.
type Sort struct {
	Column    string           `json:"column,omitempty"`
	Direction filter.Direction `json:"direction,omitempty"`
}

// State is everything a session remembers between requests.
type State struct {
	Filter           filter.Criteria `json:"filter"`
	Sort             Sort            `json:"sort"`
	Pager            pager.State     `json:"pager"`
	Columns          view.Columns    `json:"columns"`
	Selection        selection.Store `json:"selection"`
	Notes            Notes           `json:"notes"`
	Advice           []string        `json:"advice"`
	AdviceGeneration uint64          `json:"adviceGeneration"`
	NotesGeneration  uint64          `json:"notesGeneration"`
	DarkMode         bool            `json:"darkMode"`
}

// NewState returns the initial state for a dataset with the given columns.
func NewState(columns []string, visible ...string) State {
	return State{
		Filter: filter.Criteria{
			AgeCategory:          filter.AllCategory,
			CompensationCategory: filter.AllCategory,
		},
		Pager:     pager.NewState(),
		Columns:   view.Defaults(columns, visible...),
		Selection: selection.Store{Items: []entities.Row{}, Plans: map[string]selection.Plan{}},
		Advice:    []string{},
	}
}
