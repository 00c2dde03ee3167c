package medicinesparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/medicamente-cnas/logging"
	"golang.org/x/text/encoding/charmap"
)

// LoadError reports a source that could not be obtained.
type LoadError struct {
	Source     string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to load %s: HTTP error! status: %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("failed to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err carries a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Downloader fetches source documents from http(s) URLs or local paths.
type Downloader struct {
	client  *http.Client
	maxSize int64
}

// NewDownloader returns a downloader with the given request timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{
		client:  &http.Client{Timeout: timeout},
		maxSize: 200 * 1024 * 1024,
	}
}

// Fetch returns the source content decoded to UTF-8.
func (d *Downloader) Fetch(ctx context.Context, source string) (string, error) {
	raw, err := d.fetchBytes(ctx, source)
	if err != nil {
		return "", err
	}
	return decode(raw), nil
}

func (d *Downloader) fetchBytes(ctx context.Context, source string) ([]byte, error) {
	if !isURL(source) {
		raw, err := os.ReadFile(filepath.Clean(source))
		if err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}
		return raw, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	response, err := d.client.Do(req)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "source", source, "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &LoadError{Source: source, StatusCode: response.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(response.Body, d.maxSize))
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return raw, nil
}

// decode returns UTF-8 text. Legacy Romanian exports come as Windows-1250.
func decode(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte("\xEF\xBB\xBF"))
	if utf8.Valid(raw) {
		return string(raw)
	}

	decoded, err := charmap.Windows1250.NewDecoder().Bytes(raw)
	if err != nil {
		logging.Warn("Failed to decode Windows-1250 source, keeping raw bytes", "error", err)
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(decoded)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
