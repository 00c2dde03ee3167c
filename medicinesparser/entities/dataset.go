package entities

import "time"

// Dataset is an ordered row sequence sharing the column set declared by the header line.
type Dataset struct {
	Columns  []string  `json:"columns"`
	Rows     []Row     `json:"rows"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Len returns the number of rows, tolerating a nil dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether the header declared the given column.
func (d *Dataset) HasColumn(column string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Sample returns at most n leading rows.
func (d *Dataset) Sample(n int) []Row {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}
