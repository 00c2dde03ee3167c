package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medicamente-cnas/explorer"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
	"github.com/giygas/medicamente-cnas/selection"
)

var printedAt = time.Date(2026, 10, 17, 9, 5, 3, 0, time.UTC)

func stateWith(t *testing.T, actions ...explorer.Action) explorer.State {
	t.Helper()
	s := explorer.NewState(nil)
	for _, a := range actions {
		var err error
		if s, err = explorer.Reduce(s, a); err != nil {
			t.Fatalf("Reduce(%s): %v", a.Type, err)
		}
	}
	return s
}

func TestNothingToExport(t *testing.T) {
	s := stateWith(t, explorer.Action{Type: explorer.ActionSetPatientNotes, Value: "   "})
	if _, err := FromState(s, printedAt); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Expected ErrNothingToExport, got %v", err)
	}
}

func TestPrescriptionDocument(t *testing.T) {
	s := stateWith(t,
		explorer.Action{Type: explorer.ActionToggleSelection, Row: entities.Row{entities.ColumnCode: "W1", entities.ColumnName: "Paracetamol"}},
		explorer.Action{Type: explorer.ActionAddCustom, Value: "Ceai <tei>"},
		explorer.Action{Type: explorer.ActionSavePlan, Key: "W1", Plan: &selection.Plan{Duration: "5", Frequency: "3", Times: []string{"dimineata", "seara"}}},
		explorer.Action{Type: explorer.ActionSetDoctorNotes, Value: "Control în 7 zile"},
	)

	doc, err := FromState(s, printedAt)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc.Title != TitlePrescription || doc.GeneratedAt != "17.10.2026, 09:05:03" {
		t.Errorf("Unexpected header %q / %q", doc.Title, doc.GeneratedAt)
	}
	if len(doc.Medicines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(doc.Medicines))
	}
	if doc.Medicines[0].Plan != "5 zile, de trei ori pe zi, dimineața, seara" {
		t.Errorf("Unexpected plan %q", doc.Medicines[0].Plan)
	}
	if doc.Medicines[1].Code != "N/A" || doc.Medicines[1].Plan != selection.NoPlan || doc.Medicines[1].Nr != 2 {
		t.Errorf("Unexpected custom line %+v", doc.Medicines[1])
	}

	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{
		"<title>Rețetă</title>",
		"Total medicamente: 2",
		"<th>Nr.</th>",
		"Paracetamol",
		"Ceai &lt;tei&gt;",
		"Indicații Medicului",
		"Document generat automat de aplicația MedAI",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected rendered document to contain %q", want)
		}
	}
	if strings.Contains(html, "Indicații Pacient") {
		t.Error("Expected no patient section without patient notes")
	}
}

func TestNotesOnlyDocument(t *testing.T) {
	s := stateWith(t, explorer.Action{Type: explorer.ActionSetPatientNotes, Value: "Tuse seacă"})

	doc, err := FromState(s, printedAt)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != TitleNotes {
		t.Errorf("Expected notes title, got %q", doc.Title)
	}

	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<table") {
		t.Error("Expected no medicines table")
	}
	if !strings.Contains(buf.String(), "Indicații Pacient") {
		t.Error("Expected patient section")
	}
}
