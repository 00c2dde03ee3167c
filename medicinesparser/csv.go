// Package medicinesparser loads the CNAS medicines list, the disease code table and the
// precomputed facet file, and turns their text into entities.
package medicinesparser

import (
	"strings"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// ParseLine splits one CSV line on commas outside double quotes.
// Quotes toggle the quoted state and are dropped; fields are trimmed.
// A doubled quote is not unescaped, it simply toggles twice.
func ParseLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

// ParseCSV builds a dataset from CSV text. The first non-blank line is the header.
// Short rows are padded with "" and surplus fields are ignored; malformed rows never fail.
func ParseCSV(text string) *entities.Dataset {
	ds := &entities.Dataset{}

	lines := splitLines(text)
	i := 0
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			break
		}
	}
	if i == len(lines) {
		return ds
	}

	ds.Columns = ParseLine(lines[i])
	ds.Rows = make([]entities.Row, 0, len(lines)-i-1)

	for _, line := range lines[i+1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		values := ParseLine(line)
		row := make(entities.Row, len(ds.Columns))
		for idx, column := range ds.Columns {
			if idx < len(values) {
				row[column] = values[idx]
			} else {
				row[column] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds
}

// ParseDiseases reads the code,name table. The header line is skipped and rows
// with fewer than two fields are ignored. Later duplicates win.
func ParseDiseases(text string) map[string]string {
	diseases := make(map[string]string)

	lines := splitLines(text)
	for i, line := range lines {
		if i == 0 {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		values := ParseLine(line)
		if len(values) < 2 || values[0] == "" {
			continue
		}
		diseases[values[0]] = values[1]
	}

	return diseases
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
