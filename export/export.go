// Package export renders the printable prescription document for a session.
package export

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/giygas/medicamente-cnas/explorer"
	"github.com/giygas/medicamente-cnas/selection"
)

// ErrNothingToExport is returned when there are no medicines and no notes.
var ErrNothingToExport = errors.New("no selected medicines and no notes to export")

//go:embed templates/document.html
var templateFS embed.FS

var documentTemplate = template.Must(template.ParseFS(templateFS, "templates/document.html"))

const (
	TitlePrescription = "Rețetă"
	TitleNotes        = "Notițe Medicale"

	// roTimeLayout mirrors the ro-RO locale date format.
	roTimeLayout = "02.01.2006, 15:04:05"
	missing      = "N/A"
)

// Line is one medicine row of the document.
type Line struct {
	Nr   int
	Name string
	Code string
	Plan string
}

// Document is everything printed for a patient.
type Document struct {
	Title        string
	GeneratedAt  string
	Medicines    []Line
	PatientNotes string
	DoctorNotes  string
}

// FromState assembles the document of a session at time now.
func FromState(state explorer.State, now time.Time) (Document, error) {
	doc := Document{
		GeneratedAt:  now.Format(roTimeLayout),
		PatientNotes: strings.TrimSpace(state.Notes.Patient),
		DoctorNotes:  strings.TrimSpace(state.Notes.Doctor),
	}

	for i, item := range state.Selection.Items {
		code := item.Code()
		if item.IsCustom() || code == "" {
			code = missing
		}
		name := item.Name()
		if name == "" {
			name = missing
		}

		plan := selection.NoPlan
		if p, ok := state.Selection.Plan(selection.Key(item)); ok {
			plan = p.DescribeSep(", ")
		}

		doc.Medicines = append(doc.Medicines, Line{Nr: i + 1, Name: name, Code: code, Plan: plan})
	}

	if len(doc.Medicines) == 0 && doc.PatientNotes == "" && doc.DoctorNotes == "" {
		return Document{}, ErrNothingToExport
	}

	doc.Title = TitlePrescription
	if len(doc.Medicines) == 0 {
		doc.Title = TitleNotes
	}
	return doc, nil
}

// Render writes the document as a standalone HTML page.
func Render(w io.Writer, doc Document) error {
	if err := documentTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	return nil
}
