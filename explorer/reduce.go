package explorer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/giygas/medicamente-cnas/facets"
	"github.com/giygas/medicamente-cnas/filter"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/giygas/medicamente-cnas/pager"
	"github.com/giygas/medicamente-cnas/selection"
)

var (
	// ErrUnknownAction is returned for an action type Reduce does not handle.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidAction is returned when an action lacks a required field.
	ErrInvalidAction = errors.New("invalid action")
	// ErrStaleGeneration is returned when a late model response lost the race to a newer
	// request, a notes edit or a new patient.
	ErrStaleGeneration = errors.New("request superseded by a newer change")
	// ErrEmptyNotes is returned when a model request has no notes to work on.
	ErrEmptyNotes = errors.New("notes are empty")
	// ErrUnknownMedicine is returned when toggling a key that is neither in the catalog nor selected.
	ErrUnknownMedicine = errors.New("medicine not found")
)

// ActionType names a state transition.
type ActionType string

const (
	ActionSearch                  ActionType = "search"
	ActionToggleFacet             ActionType = "toggle_facet"
	ActionClearFacet              ActionType = "clear_facet"
	ActionClearAllFacets          ActionType = "clear_all_facets"
	ActionSetAgeCategory          ActionType = "set_age_category"
	ActionSetCompensationCategory ActionType = "set_compensation_category"
	ActionSetSort                 ActionType = "set_sort"
	ActionSetPage                 ActionType = "set_page"
	ActionSetPageSize             ActionType = "set_page_size"
	ActionToggleColumn            ActionType = "toggle_column"
	ActionToggleSelection         ActionType = "toggle_selection"
	ActionAddCustom               ActionType = "add_custom"
	ActionRemoveSelection         ActionType = "remove_selection"
	ActionClearSelection          ActionType = "clear_selection"
	ActionSavePlan                ActionType = "save_plan"
	ActionRemovePlan              ActionType = "remove_plan"
	ActionSetPatientNotes         ActionType = "set_patient_notes"
	ActionSetDoctorNotes          ActionType = "set_doctor_notes"
	ActionSetDarkMode             ActionType = "set_dark_mode"
	ActionNewPatient              ActionType = "new_patient"
)

// Action is a state transition request. Only the fields relevant to Type are read.
// Row and Facets come from the loaded catalog, never from the client.
type Action struct {
	Type     ActionType      `json:"type"`
	Column   string          `json:"column,omitempty"`
	Value    string          `json:"value,omitempty"`
	Key      string          `json:"key,omitempty"`
	Plan     *selection.Plan `json:"plan,omitempty"`
	Page     int             `json:"page,omitempty"`
	PageSize string          `json:"pageSize,omitempty"`
	Enabled  bool            `json:"enabled,omitempty"`

	Row    entities.Row `json:"-"`
	Facets facets.Index `json:"-"`
}

// Reduce applies action to state and returns the next state. It never mutates its input.
// Filter changes reset paging to the first page.
func Reduce(state State, action Action) (State, error) {
	next := state

	switch action.Type {
	case ActionSearch:
		next.Filter.Search = action.Value
		next.Pager = next.Pager.Reset()

	case ActionToggleFacet:
		if action.Column == "" {
			return state, fmt.Errorf("%w: %s needs a column", ErrInvalidAction, action.Type)
		}
		// values outside the facet index are ignored
		next.Filter.Facets = action.Facets.WithSelection(state.Filter.Facets).
			Toggle(action.Column, action.Value).
			Selection()
		next.Pager = next.Pager.Reset()

	case ActionClearFacet:
		next.Filter.Facets = action.Facets.WithSelection(state.Filter.Facets).
			Clear(action.Column).
			Selection()
		next.Pager = next.Pager.Reset()

	case ActionClearAllFacets:
		next.Filter.Facets = nil
		next.Pager = next.Pager.Reset()

	case ActionSetAgeCategory:
		next.Filter.AgeCategory = categoryOrAll(action.Value)
		next.Pager = next.Pager.Reset()

	case ActionSetCompensationCategory:
		next.Filter.CompensationCategory = categoryOrAll(action.Value)
		next.Pager = next.Pager.Reset()

	case ActionSetSort:
		next.Sort = Sort{Column: action.Column, Direction: filter.ParseDirection(action.Value)}
		if action.Column == "" {
			next.Sort = Sort{}
		}
		next.Pager = next.Pager.Reset()

	case ActionSetPage:
		next.Pager = state.Pager.WithPage(action.Page)

	case ActionSetPageSize:
		size, err := pager.ParseSize(action.PageSize)
		if err != nil {
			return state, fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
		next.Pager = state.Pager.WithSize(size)

	case ActionToggleColumn:
		next.Columns = state.Columns.Toggle(action.Column)

	case ActionToggleSelection:
		if action.Row == nil {
			// Rows gone from the catalog, and custom rows, can still be deselected.
			if action.Key != "" && state.Selection.Contains(action.Key) {
				next.Selection = state.Selection.Remove(action.Key)
				break
			}
			if action.Key == "" {
				return state, fmt.Errorf("%w: %s needs a key", ErrInvalidAction, action.Type)
			}
			return state, fmt.Errorf("%w: %q", ErrUnknownMedicine, action.Key)
		}
		if selection.Key(action.Row) == "" {
			return state, fmt.Errorf("%w: %s needs a row with a code", ErrInvalidAction, action.Type)
		}
		next.Selection = state.Selection.Toggle(action.Row)

	case ActionAddCustom:
		store, _, err := state.Selection.AddCustom(action.Value)
		if err != nil {
			return state, err
		}
		next.Selection = store

	case ActionRemoveSelection:
		next.Selection = state.Selection.Remove(action.Key)

	case ActionClearSelection:
		next.Selection = state.Selection.Clear()

	case ActionSavePlan:
		if action.Plan == nil {
			return state, fmt.Errorf("%w: %s needs a plan", ErrInvalidAction, action.Type)
		}
		next.Selection = state.Selection.SavePlan(action.Key, *action.Plan)

	case ActionRemovePlan:
		next.Selection = state.Selection.RemovePlan(action.Key)

	case ActionSetPatientNotes:
		next.Notes.Patient = action.Value

	case ActionSetDoctorNotes:
		next.Notes.Doctor = action.Value
		// a formatting response would overwrite this edit
		next.NotesGeneration = state.NotesGeneration + 1

	case ActionSetDarkMode:
		next.DarkMode = action.Enabled

	case ActionNewPatient:
		next.Selection = state.Selection.Clear()
		next.Notes = Notes{}
		next.Advice = []string{}
		// In-flight model responses belong to the previous patient.
		next.AdviceGeneration = state.AdviceGeneration + 1
		next.NotesGeneration = state.NotesGeneration + 1

	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	return next, nil
}

// BeginAdvice marks a new advice request and returns its generation.
func BeginAdvice(state State) (State, uint64) {
	state.AdviceGeneration++
	return state, state.AdviceGeneration
}

// CommitAdvice stores advice only if gen is still the latest request.
func CommitAdvice(state State, gen uint64, advice []string) (State, error) {
	if gen != state.AdviceGeneration {
		return state, ErrStaleGeneration
	}
	state.Advice = slices.Clone(advice)
	if state.Advice == nil {
		state.Advice = []string{}
	}
	return state, nil
}

// BeginNotesFormat marks a new doctor-notes formatting request. It returns the notes
// to format and the request generation, or ErrEmptyNotes without changing state.
func BeginNotesFormat(state State) (State, uint64, string, error) {
	if trimmed(state.Notes.Doctor) == "" {
		return state, 0, "", fmt.Errorf("%w: doctor notes", ErrEmptyNotes)
	}
	state.NotesGeneration++
	return state, state.NotesGeneration, state.Notes.Doctor, nil
}

// CommitFormattedNotes replaces the doctor notes only if gen is still the latest change.
func CommitFormattedNotes(state State, gen uint64, text string) (State, error) {
	if gen != state.NotesGeneration {
		return state, ErrStaleGeneration
	}
	state.Notes.Doctor = text
	return state, nil
}

// Reconcile persists the visible-column set against the current dataset columns.
// Sessions created before the data arrived, or before a reload changed the header,
// get their columns derived here.
func Reconcile(state State, columns []string, visible ...string) State {
	if len(columns) == 0 {
		return state
	}
	state.Columns = state.Columns.Reconcile(columns, visible...)
	return state
}

func categoryOrAll(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return filter.AllCategory
	}
	return id
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
