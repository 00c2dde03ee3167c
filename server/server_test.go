package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medicamente-cnas/config"
	"github.com/giygas/medicamente-cnas/interfaces"
	"github.com/giygas/medicamente-cnas/logging"
)

func TestMain(m *testing.M) {
	logging.InitLogger("")
	os.Exit(m.Run())
}

// recordingHandler answers every endpoint with its own name.
type recordingHandler struct{}

var _ interfaces.HTTPHandler = recordingHandler{}

func answer(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(name))
	}
}

func (recordingHandler) ServeMedicines(w http.ResponseWriter, r *http.Request) {
	answer("medicines")(w, r)
}
func (recordingHandler) ServeMedicine(w http.ResponseWriter, r *http.Request) {
	answer("medicine")(w, r)
}
func (recordingHandler) ServeColumns(w http.ResponseWriter, r *http.Request) {
	answer("columns")(w, r)
}
func (recordingHandler) ServeFacets(w http.ResponseWriter, r *http.Request) {
	answer("facets")(w, r)
}
func (recordingHandler) ServeFacetValues(w http.ResponseWriter, r *http.Request) {
	answer("facet values")(w, r)
}
func (recordingHandler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	answer("categories")(w, r)
}
func (recordingHandler) ServeDiseases(w http.ResponseWriter, r *http.Request) {
	answer("diseases")(w, r)
}
func (recordingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	answer("create session")(w, r)
}
func (recordingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	answer("get session")(w, r)
}
func (recordingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	answer("delete session")(w, r)
}
func (recordingHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	answer("action")(w, r)
}
func (recordingHandler) ServeSessionMedicines(w http.ResponseWriter, r *http.Request) {
	answer("session medicines")(w, r)
}
func (recordingHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	answer("export")(w, r)
}
func (recordingHandler) RequestAdvice(w http.ResponseWriter, r *http.Request) {
	answer("advice")(w, r)
}
func (recordingHandler) FormatNotes(w http.ResponseWriter, r *http.Request) {
	answer("format notes")(w, r)
}
func (recordingHandler) Chat(w http.ResponseWriter, r *http.Request) {
	answer("chat")(w, r)
}
func (recordingHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	answer("health")(w, r)
}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		LogLevel:       "info",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		AllowedOrigins: []string{"https://medicamente.example.ro"},
	}
}

func TestNewServer(t *testing.T) {
	cfg := testConfig()
	s := NewServer(cfg, recordingHandler{})

	if s.server.Addr != "127.0.0.1:8080" {
		t.Errorf("Expected address 127.0.0.1:8080, got %s", s.server.Addr)
	}
	if s.config != cfg {
		t.Error("Config should be set correctly")
	}
	if s.router == nil || s.Router() != s.router {
		t.Error("Router should be set")
	}
	if s.server.WriteTimeout < 60*time.Second {
		t.Errorf("Expected write timeout to cover model calls, got %s", s.server.WriteTimeout)
	}
}

func TestRoutes(t *testing.T) {
	s := NewServer(testConfig(), recordingHandler{})

	tests := []struct {
		method   string
		path     string
		expected string
	}{
		{"GET", "/medicines?search=ibu", "medicines"},
		{"GET", "/medicines/W123", "medicine"},
		{"GET", "/columns", "columns"},
		{"GET", "/facets", "facets"},
		{"GET", "/facets/Substanta%20activa", "facet values"},
		{"GET", "/categories", "categories"},
		{"GET", "/diseases?codes=K20", "diseases"},
		{"POST", "/sessions", "create session"},
		{"GET", "/sessions/abc", "get session"},
		{"DELETE", "/sessions/abc", "delete session"},
		{"POST", "/sessions/abc/actions", "action"},
		{"GET", "/sessions/abc/medicines", "session medicines"},
		{"GET", "/sessions/abc/export", "export"},
		{"POST", "/sessions/abc/advice", "advice"},
		{"POST", "/sessions/abc/notes/format", "format notes"},
		{"POST", "/chat", "chat"},
		{"GET", "/health", "health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:40000"
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rr.Code)
			}
			if rr.Body.String() != tt.expected {
				t.Errorf("Expected handler %q, got %q", tt.expected, rr.Body.String())
			}
			if rr.Header().Get("X-RateLimit-Limit") == "" {
				t.Error("Expected rate limit headers")
			}
		})
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := NewServer(testConfig(), recordingHandler{})

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest("GET", "/database", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest("PUT", "/chat", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(testConfig(), recordingHandler{})

	// One request so the HTTP counters have a sample.
	s.router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/columns", nil))

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_request_total") {
		t.Error("Expected http_request_total in metrics output")
	}
}

func TestCompression(t *testing.T) {
	handler := jsonHandler{body: `{"rows":"` + strings.Repeat("Paracetamol ", 200) + `"}`}
	s := NewServer(testConfig(), handler)

	req := httptest.NewRequest("GET", "/medicines", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Expected gzip encoding, got %q", rr.Header().Get("Content-Encoding"))
	}
	if rr.Body.Len() >= len(handler.body) {
		t.Errorf("Expected a compressed body, got %d bytes for %d", rr.Body.Len(), len(handler.body))
	}

	req = httptest.NewRequest("GET", "/medicines", nil)
	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Header().Get("Content-Encoding") != "" || rr.Body.String() != handler.body {
		t.Error("Expected an uncompressed body without Accept-Encoding")
	}
}

// jsonHandler answers the medicines route with a fixed JSON body.
type jsonHandler struct {
	recordingHandler
	body string
}

func (h jsonHandler) ServeMedicines(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.body))
}

func TestCORS(t *testing.T) {
	s := NewServer(testConfig(), recordingHandler{})

	tests := []struct {
		name          string
		origin        string
		expectAllowed bool
	}{
		{"allowed origin", "https://medicamente.example.ro", true},
		{"other origin", "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("OPTIONS", "/sessions/abc/actions", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)

			got := rr.Header().Get("Access-Control-Allow-Origin")
			if tt.expectAllowed && got != tt.origin {
				t.Errorf("Expected origin %s allowed, got %q", tt.origin, got)
			}
			if !tt.expectAllowed && got != "" {
				t.Errorf("Expected no allow-origin header, got %q", got)
			}
		})
	}
}

func TestProductionBlocksDirectAccess(t *testing.T) {
	cfg := testConfig()
	cfg.Env = config.EnvProduction
	s := NewServer(cfg, recordingHandler{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.50:1234"
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for direct access in production, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 behind the proxy, got %d", rr.Code)
	}
}

func TestShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Port = "0"
	s := NewServer(cfg, recordingHandler{})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			t.Errorf("Expected ErrServerClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not stop")
	}
}
