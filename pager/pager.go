// Package pager slices filtered rows into pages.
package pager

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

// Size is a page size; Unbounded shows every row on a single page.
type Size int

const (
	Unbounded   Size = 0
	DefaultSize Size = 10
)

// Choices are the sizes offered to users.
var Choices = []Size{10, 50, 100, Unbounded}

func (s Size) String() string {
	if s == Unbounded {
		return "All"
	}
	return strconv.Itoa(int(s))
}

// MarshalText renders "All" for the unbounded sentinel.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSize accepts "All", "toate" or a positive integer. An empty string yields DefaultSize.
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return DefaultSize, nil
	case "all", "toate":
		return Unbounded, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultSize, fmt.Errorf("invalid page size %q: %w", s, err)
	}
	if n <= 0 {
		return DefaultSize, fmt.Errorf("page size must be positive, got %d", n)
	}
	return Size(n), nil
}

// Page is one slice of a filtered sequence.
type Page struct {
	Items      []entities.Row `json:"items"`
	Page       int            `json:"page"`
	PageSize   Size           `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	TotalItems int            `json:"totalItems"`
}

// TotalPages is max(1, ceil(total/size)), and 1 when unbounded.
func TotalPages(total int, size Size) int {
	if size <= Unbounded || total <= 0 {
		return 1
	}
	return (total + int(size) - 1) / int(size)
}

// Clamp keeps page within [1, totalPages].
func Clamp(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns the requested page, clamping out-of-range page numbers.
func Paginate(rows []entities.Row, size Size, page int) Page {
	total := len(rows)
	totalPages := TotalPages(total, size)
	page = Clamp(page, totalPages)

	start, end := 0, total
	if size > Unbounded {
		start = (page - 1) * int(size)
		end = min(start+int(size), total)
	}

	return Page{
		Items:      rows[start:end],
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		TotalItems: total,
	}
}

// State is the user's paging position.
type State struct {
	Page int  `json:"page"`
	Size Size `json:"pageSize"`
}

// NewState starts on page 1 with the default size.
func NewState() State {
	return State{Page: 1, Size: DefaultSize}
}

// WithSize changes the size and resets to page 1.
func (s State) WithSize(size Size) State {
	return State{Page: 1, Size: size}
}

// WithPage moves to a page. Clamping happens when the page is materialized.
func (s State) WithPage(page int) State {
	s.Page = max(page, 1)
	return s
}

// Reset returns to the first page.
func (s State) Reset() State {
	s.Page = 1
	return s
}

// Apply paginates rows according to the state.
func (s State) Apply(rows []entities.Row) Page {
	return Paginate(rows, s.Size, s.Page)
}
