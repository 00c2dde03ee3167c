// Package filter evaluates the combined search, category and facet predicate over rows.
package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// AllCategory is the category id meaning "no filter".
const AllCategory = "toate"

// Criteria is the complete filter state. Zero value filters nothing.
type Criteria struct {
	Search               string              `json:"search"`
	Facets               map[string][]string `json:"facets,omitempty"`
	AgeCategory          string              `json:"ageCategory"`
	CompensationCategory string              `json:"compensationCategory"`
}

// IsZero reports whether the criteria impose no constraint at all.
func (c Criteria) IsZero() bool {
	if c.Search != "" || isActive(c.AgeCategory) || isActive(c.CompensationCategory) {
		return false
	}
	for _, values := range c.Facets {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Categories tells the engine where category tags live and how age ids map to tokens.
type Categories struct {
	AgeColumn          string
	CompensationColumn string
	AgeTokens          map[string]string
}

// DefaultCategories matches the CNAS list layout.
func DefaultCategories() Categories {
	return Categories{
		AgeColumn:          entities.ColumnAgeCategory,
		CompensationColumn: entities.ColumnCompensation,
		AgeTokens: map[string]string{
			"copii":       "Copii",
			"adolescenti": "Adolescenți",
			"tineri":      "Tineri",
			"adulti":      "Adulți",
			"batrani":     "Bătrâni",
		},
	}
}

func isActive(category string) bool {
	return category != "" && category != AllCategory
}

// compiled holds per-call derived values so the row loop does no repeated work.
type compiled struct {
	ageToken     string
	ageActive    bool
	compensation string
	facets       []facetSet
	search       string
	cats         Categories
}

type facetSet struct {
	column string
	values map[string]struct{}
}

func compile(c Criteria, cats Categories) compiled {
	cc := compiled{cats: cats}

	if isActive(c.AgeCategory) {
		cc.ageActive = true
		// Unknown ids keep ageActive with an empty token and match nothing.
		cc.ageToken = cats.AgeTokens[c.AgeCategory]
	}
	if isActive(c.CompensationCategory) {
		cc.compensation = c.CompensationCategory
	}

	for column, values := range c.Facets {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		cc.facets = append(cc.facets, facetSet{column: column, values: set})
	}
	// Narrow sets first.
	sort.Slice(cc.facets, func(i, j int) bool {
		if len(cc.facets[i].values) != len(cc.facets[j].values) {
			return len(cc.facets[i].values) < len(cc.facets[j].values)
		}
		return cc.facets[i].column < cc.facets[j].column
	})

	cc.search = strings.ToLower(c.Search)
	return cc
}

func (cc compiled) match(row entities.Row) bool {
	if cc.ageActive {
		if cc.ageToken == "" || !strings.Contains(row[cc.cats.AgeColumn], cc.ageToken) {
			return false
		}
	}

	if cc.compensation != "" && !strings.Contains(row[cc.cats.CompensationColumn], cc.compensation) {
		return false
	}

	for _, f := range cc.facets {
		if _, ok := f.values[row[f.column]]; !ok {
			return false
		}
	}

	if cc.search != "" {
		for _, v := range row {
			if strings.Contains(strings.ToLower(v), cc.search) {
				return true
			}
		}
		return false
	}

	return true
}

// Apply returns the rows passing every active predicate, in original order.
// The input slice is never modified.
func Apply(rows []entities.Row, c Criteria, cats Categories) []entities.Row {
	if c.IsZero() {
		out := make([]entities.Row, len(rows))
		copy(out, rows)
		return out
	}

	cc := compile(c, cats)
	out := make([]entities.Row, 0, len(rows)/4)
	for _, row := range rows {
		if cc.match(row) {
			out = append(out, row)
		}
	}
	return out
}

// Matches evaluates the predicate for a single row.
func Matches(row entities.Row, c Criteria, cats Categories) bool {
	return compile(c, cats).match(row)
}

// Direction of a sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection defaults to ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Descending)) {
		return Descending
	}
	return Ascending
}

// Sort returns a stably sorted copy of rows by column. An empty column returns a copy unchanged.
// Values that both parse as numbers compare numerically.
func Sort(rows []entities.Row, column string, dir Direction) []entities.Row {
	out := make([]entities.Row, len(rows))
	copy(out, rows)
	if column == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i][column], out[j][column]
		if dir == Descending {
			a, b = b, a
		}
		return less(a, b)
	})
	return out
}

func less(a, b string) bool {
	fa, errA := strconv.ParseFloat(strings.ReplaceAll(a, ",", "."), 64)
	fb, errB := strconv.ParseFloat(strings.ReplaceAll(b, ",", "."), 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return strings.ToLower(a) < strings.ToLower(b)
}
