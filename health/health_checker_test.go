package health

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/giygas/medicamente-cnas/data"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/medicinesparser/entities"
)

func TestMain(m *testing.M) {
	logging.InitLogger("")
	os.Exit(m.Run())
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func loadedContainer() *data.DataContainer {
	dc := data.NewDataContainer()
	dc.UpdateData(&entities.Dataset{
		Columns: []string{entities.ColumnName, entities.ColumnCode},
		Rows: []entities.Row{
			{entities.ColumnName: "Paracetamol", entities.ColumnCode: "W1"},
			{entities.ColumnName: "Ibuprofen", entities.ColumnCode: "W2"},
		},
	}, nil, map[string]string{"101": "Diabet"})
	return dc
}

func checkerAt(dc *data.DataContainer, now time.Time, pinger Pinger) *HealthCheckerImpl {
	h := NewHealthChecker(dc, "05:00", pinger).(*HealthCheckerImpl)
	h.now = func() time.Time { return now }
	return h
}

func TestNewHealthChecker(t *testing.T) {
	healthChecker := NewHealthChecker(data.NewDataContainer(), "05:00", nil)

	if healthChecker == nil {
		t.Fatal("NewHealthChecker returned nil")
	}
	if _, ok := healthChecker.(*HealthCheckerImpl); !ok {
		t.Error("NewHealthChecker should return *HealthCheckerImpl")
	}
}

func TestHealthCheck_Healthy(t *testing.T) {
	dc := loadedContainer()
	dc.SetServerStartTime(time.Now().Add(-time.Minute))

	status, details, code := checkerAt(dc, time.Now(), &mockPinger{}).HealthCheck()

	if status != "healthy" || code != http.StatusOK {
		t.Errorf("Expected healthy/200, got %s/%d", status, code)
	}
	if details["rows"] != 2 {
		t.Errorf("Expected 2 rows, got %v", details["rows"])
	}
	if details["diseases"] != 1 {
		t.Errorf("Expected 1 disease, got %v", details["diseases"])
	}
	for _, key := range []string{"last_update", "data_age_hours", "next_update", "uptime_seconds"} {
		if _, ok := details[key]; !ok {
			t.Errorf("Details should contain %q", key)
		}
	}
	if _, ok := details["load_error"]; ok {
		t.Error("Healthy details should not contain load_error")
	}
}

func TestHealthCheck_Unhealthy_NoData(t *testing.T) {
	dc := data.NewDataContainer()
	dc.SetLoadError(errors.New("HTTP error! status: 404"))

	status, details, code := checkerAt(dc, time.Now(), nil).HealthCheck()

	if status != "unhealthy" || code != http.StatusServiceUnavailable {
		t.Errorf("Expected unhealthy/503, got %s/%d", status, code)
	}
	if details["load_error"] != "HTTP error! status: 404" {
		t.Errorf("Expected load error in details, got %v", details["load_error"])
	}
	if _, ok := details["last_update"]; ok {
		t.Error("No last_update expected before the first load")
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	testCases := []struct {
		name   string
		now    time.Time
		setup  func(dc *data.DataContainer)
		pinger Pinger
	}{
		{
			name: "stale data",
			now:  time.Now().Add(49 * time.Hour),
		},
		{
			name:  "failed refresh",
			now:   time.Now(),
			setup: func(dc *data.DataContainer) { dc.SetLoadError(errors.New("timeout")) },
		},
		{
			name:   "store unreachable",
			now:    time.Now(),
			pinger: &mockPinger{err: errors.New("database is closed")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dc := loadedContainer()
			if tc.setup != nil {
				tc.setup(dc)
			}

			status, _, code := checkerAt(dc, tc.now, tc.pinger).HealthCheck()
			if status != "degraded" || code != http.StatusOK {
				t.Errorf("Expected degraded/200, got %s/%d", status, code)
			}
		})
	}
}

func TestHealthCheck_Updating(t *testing.T) {
	dc := loadedContainer()
	dc.BeginUpdate()
	defer dc.EndUpdate()

	status, details, _ := checkerAt(dc, time.Now(), nil).HealthCheck()
	if status != "healthy" {
		t.Errorf("An update in progress should not change the status, got %s", status)
	}
	if details["is_updating"] != true {
		t.Errorf("Expected is_updating true, got %v", details["is_updating"])
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	loc := time.Local
	testCases := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{"before refresh", time.Date(2026, 3, 10, 4, 59, 0, 0, loc), time.Date(2026, 3, 10, 5, 0, 0, 0, loc)},
		{"at refresh", time.Date(2026, 3, 10, 5, 0, 0, 0, loc), time.Date(2026, 3, 11, 5, 0, 0, 0, loc)},
		{"after refresh", time.Date(2026, 3, 10, 18, 0, 0, 0, loc), time.Date(2026, 3, 11, 5, 0, 0, 0, loc)},
		{"month end", time.Date(2026, 3, 31, 23, 0, 0, 0, loc), time.Date(2026, 4, 1, 5, 0, 0, 0, loc)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := checkerAt(data.NewDataContainer(), tc.now, nil)
			if got := h.CalculateNextUpdate(); !got.Equal(tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestCalculateNextUpdate_CustomTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	h := NewHealthChecker(data.NewDataContainer(), "23:30", nil).(*HealthCheckerImpl)
	h.now = func() time.Time { return now }

	expected := time.Date(2026, 3, 10, 23, 30, 0, 0, time.Local)
	if got := h.CalculateNextUpdate(); !got.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func BenchmarkHealthCheck(b *testing.B) {
	h := NewHealthChecker(loadedContainer(), "05:00", nil)
	for i := 0; i < b.N; i++ {
		h.HealthCheck()
	}
}
