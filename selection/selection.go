// Package selection keeps the per-patient list of chosen medicines and their dosage plans.
// Every operation returns a new Store; the receiver is never modified.
package selection

import (
	"errors"
	"strconv"
	"strings"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/google/uuid"
)

// ErrEmptyName is returned when a custom medicine has a blank name.
var ErrEmptyName = errors.New("medicine name cannot be empty")

// CustomLabel fills descriptive columns of user-authored rows.
const CustomLabel = "Personalizat"

// customNamespace seeds the deterministic keys of custom rows.
var customNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://medicamente-cnas/custom"))

// Store is an ordered selection unique by key, plus plans by key.
type Store struct {
	Items []entities.Row  `json:"items"`
	Plans map[string]Plan `json:"plans"`
}

// Key returns the identity of a row within a selection.
func Key(row entities.Row) string {
	return row.Code()
}

func (s Store) clone() Store {
	out := Store{
		Items: make([]entities.Row, len(s.Items)),
		Plans: make(map[string]Plan, len(s.Plans)),
	}
	copy(out.Items, s.Items)
	for k, p := range s.Plans {
		out.Plans[k] = p
	}
	return out
}

// Len returns the number of selected rows.
func (s Store) Len() int {
	return len(s.Items)
}

// Contains reports whether a row with key is selected.
func (s Store) Contains(key string) bool {
	return s.index(key) >= 0
}

func (s Store) index(key string) int {
	for i, item := range s.Items {
		if Key(item) == key {
			return i
		}
	}
	return -1
}

// Keys lists selected keys in selection order.
func (s Store) Keys() []string {
	out := make([]string, len(s.Items))
	for i, item := range s.Items {
		out[i] = Key(item)
	}
	return out
}

// Toggle appends the row if absent, otherwise removes it along with its plan.
func (s Store) Toggle(row entities.Row) Store {
	key := Key(row)
	if s.Contains(key) {
		return s.Remove(key)
	}
	out := s.clone()
	out.Items = append(out.Items, row)
	return out
}

// AddCustom appends a user-authored medicine and returns its key.
func (s Store) AddCustom(name string) (Store, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s, "", ErrEmptyName
	}

	n := 0
	for _, item := range s.Items {
		if item.IsCustom() && item.Name() == name {
			n++
		}
	}
	key := customKey(name, n)
	for s.Contains(key) {
		n++
		key = customKey(name, n)
	}

	row := entities.Row{
		entities.ColumnName:         name,
		entities.ColumnCode:         key,
		entities.ColumnSubstance:    CustomLabel,
		entities.ColumnCompensation: CustomLabel,
		entities.ColumnAgeCategory:  "Toate",
		entities.ColumnDiseaseCodes: "",
		entities.ColumnCustom:       "true",
	}

	out := s.clone()
	out.Items = append(out.Items, row)
	return out, key, nil
}

func customKey(name string, n int) string {
	id := uuid.NewSHA1(customNamespace, []byte(name+"#"+strconv.Itoa(n)))
	return "custom-" + strings.ReplaceAll(id.String(), "-", "")[:12]
}

// Remove drops the row with key and its plan. Unknown keys are ignored.
func (s Store) Remove(key string) Store {
	i := s.index(key)
	if i < 0 {
		return s
	}
	out := s.clone()
	out.Items = append(out.Items[:i], out.Items[i+1:]...)
	delete(out.Plans, key)
	return out
}

// Clear empties the selection and every plan.
func (s Store) Clear() Store {
	return Store{Items: []entities.Row{}, Plans: map[string]Plan{}}
}

// SavePlan normalizes and stores a plan for a selected row.
// Plans without any content, or for rows not selected, leave the store unchanged.
func (s Store) SavePlan(key string, plan Plan) Store {
	i := s.index(key)
	if i < 0 {
		return s
	}
	plan = plan.Normalize()
	if plan.IsEmpty() {
		return s
	}
	plan.MedicineCode = key
	plan.MedicineName = s.Items[i].Name()

	out := s.clone()
	out.Plans[key] = plan
	return out
}

// RemovePlan drops the plan of key.
func (s Store) RemovePlan(key string) Store {
	if _, ok := s.Plans[key]; !ok {
		return s
	}
	out := s.clone()
	delete(out.Plans, key)
	return out
}

// Plan returns the plan of key, if any.
func (s Store) Plan(key string) (Plan, bool) {
	p, ok := s.Plans[key]
	return p, ok
}

// Describe renders the plan of key or NoPlan.
func (s Store) Describe(key string) string {
	if p, ok := s.Plans[key]; ok {
		return p.Describe()
	}
	return NoPlan
}
