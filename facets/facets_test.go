package facets

import (
	"errors"
	"reflect"
	"testing"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

func testDataset() *entities.Dataset {
	return &entities.Dataset{
		Columns: []string{entities.ColumnName, entities.ColumnCode, entities.ColumnCompensation},
		Rows: []entities.Row{
			{entities.ColumnName: "Paracetamol", entities.ColumnCode: "W1", entities.ColumnCompensation: "A"},
			{entities.ColumnName: "Ibuprofen", entities.ColumnCode: "W2", entities.ColumnCompensation: "B"},
			{entities.ColumnName: "Aspirina", entities.ColumnCode: "W3", entities.ColumnCompensation: ""},
			{entities.ColumnName: "Paracetamol", entities.ColumnCode: "W4", entities.ColumnCompensation: "A"},
		},
	}
}

func TestBuild(t *testing.T) {
	idx := Build(testDataset())

	if _, ok := idx[entities.ColumnName]; ok {
		t.Error("Expected name column excluded from facets")
	}

	want := map[string]bool{"A": false, "B": false}
	if !reflect.DeepEqual(idx[entities.ColumnCompensation], want) {
		t.Errorf("Expected %v, got %v", want, idx[entities.ColumnCompensation])
	}
	if len(idx[entities.ColumnCode]) != 4 {
		t.Errorf("Expected 4 distinct codes, got %d", len(idx[entities.ColumnCode]))
	}

	if len(Build(nil)) != 0 {
		t.Error("Expected empty index for nil dataset")
	}
}

func TestResolveShapesMatch(t *testing.T) {
	ds := testDataset()
	precomputed := map[string][]string{
		entities.ColumnName:         {"Paracetamol"},
		entities.ColumnCode:         {"W1", "W2", "W3", "W4"},
		entities.ColumnCompensation: {"A", "B", " "},
	}

	fromFile, usedFile := Resolve(precomputed, nil, ds)
	if !usedFile {
		t.Error("Expected precomputed facets to be preferred")
	}
	derived, usedFile := Resolve(precomputed, errors.New("boom"), ds)
	if usedFile {
		t.Error("Expected fallback when the facet file failed")
	}
	if !reflect.DeepEqual(fromFile, derived) {
		t.Errorf("Expected identical shapes, got %v and %v", fromFile, derived)
	}

	if _, usedFile := Resolve(nil, nil, ds); usedFile {
		t.Error("Expected fallback when no facet file exists")
	}
}

func TestToggleAndSelection(t *testing.T) {
	idx := Build(testDataset())

	toggled := idx.Toggle(entities.ColumnCompensation, "A")
	if idx[entities.ColumnCompensation]["A"] {
		t.Error("Toggle must not mutate the receiver")
	}
	if !toggled[entities.ColumnCompensation]["A"] {
		t.Error("Expected A selected")
	}
	if got := toggled.ActiveColumns(); !reflect.DeepEqual(got, []string{entities.ColumnCompensation}) {
		t.Errorf("Unexpected active columns %v", got)
	}

	back := toggled.Toggle(entities.ColumnCompensation, "A")
	if !reflect.DeepEqual(back, idx) {
		t.Error("Expected toggling twice to restore the index")
	}

	unknown := idx.Toggle("Nope", "x").Toggle(entities.ColumnCompensation, "Z")
	if !reflect.DeepEqual(unknown, idx) {
		t.Error("Expected unknown toggles to be ignored")
	}
}

func TestSetClearAndValues(t *testing.T) {
	idx := Build(testDataset()).Set(entities.ColumnCode, []string{"W2", "W1", "W9"})

	if got := idx.Selected(entities.ColumnCode); !reflect.DeepEqual(got, []string{"W1", "W2"}) {
		t.Errorf("Expected [W1 W2], got %v", got)
	}
	if got := idx.Selection(); len(got) != 1 || len(got[entities.ColumnCode]) != 2 {
		t.Errorf("Unexpected selection %v", got)
	}

	idx = idx.Toggle(entities.ColumnCompensation, "B")
	if len(idx.Clear(entities.ColumnCode).ActiveColumns()) != 1 {
		t.Error("Expected only the compensation column active after clearing codes")
	}
	if len(idx.ClearAll().ActiveColumns()) != 0 {
		t.Error("Expected no active columns after ClearAll")
	}

	if got := idx.Values(entities.ColumnCode, " w "); len(got) != 4 {
		t.Errorf("Expected case-insensitive search over codes, got %v", got)
	}
	if got := idx.Values(entities.ColumnCode, "3"); !reflect.DeepEqual(got, []string{"W3"}) {
		t.Errorf("Expected [W3], got %v", got)
	}
	if got := idx.Columns(); !reflect.DeepEqual(got, []string{entities.ColumnCode, entities.ColumnCompensation}) {
		t.Errorf("Unexpected columns %v", got)
	}
}

func TestWithSelection(t *testing.T) {
	base := Build(testDataset()).Toggle(entities.ColumnCode, "W3")

	idx := base.WithSelection(map[string][]string{
		entities.ColumnCompensation: {"A", "ZZZ"},
		"Nope":                      {"x"},
	})
	want := map[string][]string{entities.ColumnCompensation: {"A"}}
	if got := idx.Selection(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if len(base.Selected(entities.ColumnCode)) != 1 {
		t.Error("Expected the source index untouched")
	}

	var empty Index
	if got := empty.WithSelection(want).Selection(); len(got) != 0 {
		t.Errorf("Expected nothing selected on an empty index, got %v", got)
	}
}
