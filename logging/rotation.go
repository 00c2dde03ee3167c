package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const defaultMaxFileSize = 100 * 1024 * 1024

// RotatingLogger is an io.Writer that starts a new file every ISO week or
// whenever the current file would grow past maxFileSize.
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu      sync.Mutex
	file    *os.File
	week    string
	seq     int
	size    int64
	now     func() time.Time
	cancel  context.CancelFunc
	stopped chan struct{}
}

// OpenRotatingLogger creates logDir if needed, opens the file for the current
// week and starts the daily retention cleanup.
func OpenRotatingLogger(logDir string, retentionWeeks int, maxFileSize int64) (*RotatingLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl := &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
		cancel:      cancel,
		stopped:     make(chan struct{}),
	}

	rl.mu.Lock()
	err := rl.openLocked(weekKey(rl.now()))
	rl.mu.Unlock()
	if err != nil {
		cancel()
		return nil, err
	}

	go rl.cleanupLoop(ctx)
	return rl, nil
}

// weekKey returns the ISO week in YYYY-Www form.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rl *RotatingLogger) fileName(week string, seq int) string {
	if seq == 0 {
		return filepath.Join(rl.logDir, fmt.Sprintf("explorer-%s.log", week))
	}
	return filepath.Join(rl.logDir, fmt.Sprintf("explorer-%s_%02d.log", week, seq))
}

// openLocked opens the first file of week that still has room. Caller holds mu.
func (rl *RotatingLogger) openLocked(week string) error {
	if rl.file != nil {
		if err := rl.file.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rl.file = nil
	}

	seq := 0
	if week == rl.week {
		seq = rl.seq + 1
	}
	for {
		info, err := os.Stat(rl.fileName(week, seq))
		if err != nil || info.Size() < rl.maxFileSize {
			break
		}
		seq++
	}

	path := rl.fileName(week, seq)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	rl.file = file
	rl.week = week
	rl.seq = seq
	rl.size = size
	return nil
}

// Write implements io.Writer.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(rl.now())
	if rl.file == nil || week != rl.week || rl.size+int64(len(p)) > rl.maxFileSize {
		if err := rl.openLocked(week); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// CurrentFile returns the path being written to.
func (rl *RotatingLogger) CurrentFile() string {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.fileName(rl.week, rl.seq)
}

func (rl *RotatingLogger) cleanupLoop(ctx context.Context) {
	defer close(rl.stopped)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rl.cleanupOldLogs(); err != nil {
				slog.Warn("Failed to cleanup old logs", "error", err)
			}
		}
	}
}

// cleanupOldLogs removes log files older than the retention period and
// returns how many were deleted.
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rl.now().Add(-rl.retention)
	current := rl.CurrentFile()
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "explorer-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		full := filepath.Join(rl.logDir, name)
		if full == current {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(full); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// Close stops the cleanup goroutine and closes the current file.
func (rl *RotatingLogger) Close() error {
	rl.cancel()
	select {
	case <-rl.stopped:
	case <-time.After(time.Second):
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}

// multiHandler fans a record out to every handler that accepts its level.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
