// Package logging wires log/slog for the explorer: a console handler plus a
// weekly rotating JSON file, reachable through package-level helpers.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/medicamente-cnas/config"
)

// LoggingService owns the process logger and the file it writes to.
type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

// Options tunes InitLoggerWithOptions.
type Options struct {
	Env            config.Environment
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with development defaults.
// An empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithOptions(logDir, Options{Env: config.EnvDevelopment})
}

// InitLoggerWithOptions initializes the global logger and makes it the slog default.
func InitLoggerWithOptions(logDir string, opts Options) {
	if DefaultLoggingService != nil && DefaultLoggingService.file != nil {
		_ = DefaultLoggingService.file.Close()
	}

	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	service := &LoggingService{Logger: slog.New(consoleHandler)}

	if logDir != "" {
		retention := opts.RetentionWeeks
		if retention <= 0 {
			retention = 4
		}
		rl, err := OpenRotatingLogger(logDir, retention, opts.MaxFileSize)
		if err != nil {
			service.Logger.Error("File logging disabled", "dir", logDir, "error", err)
		} else {
			fileHandler := slog.NewJSONHandler(rl, &slog.HandlerOptions{Level: GetFileLogLevel()})
			service.file = rl
			service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
		}
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// Close flushes and closes the log file, if any.
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.file == nil {
		return nil
	}
	err := DefaultLoggingService.file.Close()
	DefaultLoggingService.file = nil
	return err
}

// parseLogLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level for an environment.
// Tests stay quiet unless verbose, whatever LOG_LEVEL says.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}
	if level != "" {
		return parseLogLevel(level)
	}
	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level used for the JSON log file.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}
