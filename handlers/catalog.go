package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/giygas/medicamente-cnas/explorer"
	"github.com/giygas/medicamente-cnas/filter"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/giygas/medicamente-cnas/pager"
	"github.com/giygas/medicamente-cnas/view"
	"github.com/go-chi/chi/v5"
)

// facetParamPrefix marks a facet selection in the query string: f.<column>=value
const facetParamPrefix = "f."

// stateFromQuery builds a one-off explorer state from the query string of GET /medicines.
func (h *HTTPHandlerImpl) stateFromQuery(q url.Values, ds *entities.Dataset) (explorer.State, error) {
	visible := h.catalog.DefaultVisibleColumns
	if raw := q.Get("columns"); raw != "" {
		visible = nil
		for _, col := range strings.Split(raw, ",") {
			col = strings.TrimSpace(col)
			if col == "" {
				continue
			}
			if err := h.validator.ValidateColumn(ds, col); err != nil {
				return explorer.State{}, err
			}
			visible = append(visible, col)
		}
	}
	state := explorer.NewState(ds.Columns, visible...)

	// The term is matched as typed, surrounding spaces included.
	if search := q.Get("search"); search != "" {
		if strings.TrimSpace(search) != "" {
			if err := h.validator.ValidateInput(search); err != nil {
				return explorer.State{}, err
			}
		}
		state.Filter.Search = search
	}
	state.Filter.AgeCategory = h.category(strings.TrimSpace(q.Get("age")))
	state.Filter.CompensationCategory = h.category(strings.TrimSpace(q.Get("compensation")))

	for key, values := range q {
		column, ok := strings.CutPrefix(key, facetParamPrefix)
		if !ok {
			continue
		}
		if err := h.validator.ValidateColumn(ds, column); err != nil {
			return explorer.State{}, err
		}
		if state.Filter.Facets == nil {
			state.Filter.Facets = make(map[string][]string)
		}
		for _, v := range values {
			if !slices.Contains(state.Filter.Facets[column], v) {
				state.Filter.Facets[column] = append(state.Filter.Facets[column], v)
			}
		}
	}

	if column := strings.TrimSpace(q.Get("sort")); column != "" {
		if err := h.validator.ValidateColumn(ds, column); err != nil {
			return explorer.State{}, err
		}
		state.Sort = explorer.Sort{Column: column, Direction: filter.ParseDirection(q.Get("dir"))}
	}

	size, err := pager.ParseSize(q.Get("pageSize"))
	if err != nil {
		return explorer.State{}, err
	}
	state.Pager = state.Pager.WithSize(size)

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return explorer.State{}, fmt.Errorf("invalid page number %q", raw)
		}
		state.Pager = state.Pager.WithPage(page)
	}

	return state, nil
}

// ServeMedicines returns one filtered, sorted and paginated page of the catalog
func (h *HTTPHandlerImpl) ServeMedicines(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.requireDataset(w)
	if !ok {
		return
	}

	state, err := h.stateFromQuery(r.URL.Query(), ds)
	if err != nil {
		logging.Warn("Unusual user input", "query", r.URL.RawQuery, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.RespondWithJSON(w, http.StatusOK, explorer.View(state, ds, h.categories()))
}

// ServeMedicine returns one medicine by code with its resolved diseases
func (h *HTTPHandlerImpl) ServeMedicine(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireDataset(w); !ok {
		return
	}

	code := strings.TrimSpace(chi.URLParam(r, "code"))
	row, found := h.dataStore.GetRow(code)
	if !found {
		h.RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"medicine": row,
		"diseases": view.DiseasesFor(row.Get(h.diseaseColumn()), h.dataStore.GetDiseases()),
	})
}

// ServeColumns returns the dataset columns and the default visible ones
func (h *HTTPHandlerImpl) ServeColumns(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.requireDataset(w)
	if !ok {
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"columns":        ds.Columns,
		"defaultVisible": view.Defaults(ds.Columns, h.catalog.DefaultVisibleColumns...).Headers(ds.Columns),
	})
}

// ServeFacets returns every faceted column with its distinct values
func (h *HTTPHandlerImpl) ServeFacets(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireDataset(w); !ok {
		return
	}

	idx := h.dataStore.GetFacets()
	out := make(map[string][]string, len(idx))
	for _, column := range idx.Columns() {
		out[column] = idx.Values(column, "")
	}
	h.RespondWithJSON(w, http.StatusOK, out)
}

// ServeFacetValues returns the values of one facet column, narrowed by ?q=
func (h *HTTPHandlerImpl) ServeFacetValues(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireDataset(w); !ok {
		return
	}

	column := chi.URLParam(r, "column")
	idx := h.dataStore.GetFacets()
	if _, exists := idx[column]; !exists {
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Unknown facet column %q", column))
		return
	}

	term := r.URL.Query().Get("q")
	if strings.TrimSpace(term) != "" {
		if err := h.validator.ValidateInput(term); err != nil {
			logging.Warn("Unusual user input", "q", term, "error", err)
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	values := idx.Values(column, term)
	if values == nil {
		values = []string{}
	}
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"column": column,
		"values": values,
	})
}

// ServeCategories returns the age and compensation categories of the catalog
func (h *HTTPHandlerImpl) ServeCategories(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"all":          h.catalog.AllCategory,
		"age":          h.catalog.AgeCategories,
		"compensation": h.catalog.CompensationCategories,
	})
}

// ServeDiseases resolves ?codes= against the disease table, or lists the whole table
func (h *HTTPHandlerImpl) ServeDiseases(w http.ResponseWriter, r *http.Request) {
	diseases := h.dataStore.GetDiseases()

	if codes := r.URL.Query().Get("codes"); codes != "" {
		h.RespondWithJSON(w, http.StatusOK, view.DiseasesFor(codes, diseases))
		return
	}

	out := make([]entities.Disease, 0, len(diseases))
	for code, name := range diseases {
		out = append(out, entities.Disease{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	h.RespondWithJSON(w, http.StatusOK, out)
}
