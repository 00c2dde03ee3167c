package pager

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

func makeRows(n int) []entities.Row {
	rows := make([]entities.Row, n)
	for i := range rows {
		rows[i] = entities.Row{entities.ColumnCode: fmt.Sprintf("M%d", i)}
	}
	return rows
}

func TestPaginationCoversEveryRow(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 99, 100, 101, 257} {
		for _, size := range []Size{1, 3, 10, 50, 100} {
			rows := makeRows(total)
			first := Paginate(rows, size, 1)

			want := (total + int(size) - 1) / int(size)
			if want == 0 {
				want = 1
			}
			if first.TotalPages != want {
				t.Errorf("R=%d P=%d: expected %d pages, got %d", total, size, want, first.TotalPages)
			}

			sum := 0
			for p := 1; p <= first.TotalPages; p++ {
				page := Paginate(rows, size, p)
				if len(page.Items) > int(size) {
					t.Errorf("R=%d P=%d: page %d has %d items", total, size, p, len(page.Items))
				}
				sum += len(page.Items)
			}
			if sum != total {
				t.Errorf("R=%d P=%d: pages hold %d rows", total, size, sum)
			}
		}
	}
}

func TestPaginateClampsAndUnbounded(t *testing.T) {
	rows := makeRows(25)

	tests := []struct {
		name      string
		size      Size
		page      int
		wantPage  int
		wantItems int
		firstCode string
	}{
		{"below range", 10, -3, 1, 10, "M0"},
		{"above range", 10, 99, 3, 5, "M20"},
		{"middle", 10, 2, 2, 10, "M10"},
		{"unbounded", Unbounded, 4, 1, 25, "M0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(rows, tt.size, tt.page)
			if page.Page != tt.wantPage {
				t.Errorf("Expected page %d, got %d", tt.wantPage, page.Page)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("Expected %d items, got %d", tt.wantItems, len(page.Items))
			}
			if page.Items[0].Code() != tt.firstCode {
				t.Errorf("Expected first item %s, got %s", tt.firstCode, page.Items[0].Code())
			}
			if page.TotalItems != 25 {
				t.Errorf("Expected 25 total items, got %d", page.TotalItems)
			}
		})
	}

	empty := Paginate(nil, Unbounded, 1)
	if empty.TotalPages != 1 || empty.Page != 1 || len(empty.Items) != 0 {
		t.Errorf("Unexpected empty page %+v", empty)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    Size
		wantErr bool
	}{
		{"", DefaultSize, false},
		{"50", 50, false},
		{"All", Unbounded, false},
		{"toate", Unbounded, false},
		{"7", 7, false},
		{"0", DefaultSize, true},
		{"-5", DefaultSize, true},
		{"many", DefaultSize, true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	s := NewState().WithPage(4)
	if s.Page != 4 {
		t.Fatalf("Expected page 4, got %d", s.Page)
	}

	s = s.WithSize(50)
	if s.Page != 1 || s.Size != 50 {
		t.Errorf("Expected size change to reset page, got %+v", s)
	}

	if got := NewState().WithPage(-2).Page; got != 1 {
		t.Errorf("Expected negative page raised to 1, got %d", got)
	}

	page := State{Page: 9, Size: 10}.Apply(makeRows(15))
	if page.Page != 2 {
		t.Errorf("Expected clamped page 2, got %d", page.Page)
	}
}

func TestSizeJSON(t *testing.T) {
	data, err := json.Marshal(State{Page: 1, Size: Unbounded})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"page":1,"pageSize":"All"}` {
		t.Errorf("Unexpected JSON %s", data)
	}

	var s State
	if err := json.Unmarshal([]byte(`{"page":2,"pageSize":"100"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Size != 100 || s.Page != 2 {
		t.Errorf("Unexpected state %+v", s)
	}
}
