package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/medicamente-cnas/advisor"
	"github.com/giygas/medicamente-cnas/config"
	"github.com/giygas/medicamente-cnas/data"
	"github.com/giygas/medicamente-cnas/handlers"
	"github.com/giygas/medicamente-cnas/health"
	"github.com/giygas/medicamente-cnas/logging"
	"github.com/giygas/medicamente-cnas/medicinesparser"
	"github.com/giygas/medicamente-cnas/scheduler"
	"github.com/giygas/medicamente-cnas/server"
	"github.com/giygas/medicamente-cnas/store"
	"github.com/giygas/medicamente-cnas/validation"
	"github.com/joho/godotenv"
)

func main() {
	// Read .env from the working directory, then from the executable directory
	if err := godotenv.Load(); err != nil {
		if ex, err := os.Executable(); err == nil {
			exPath := filepath.Dir(ex)
			if err := godotenv.Load(filepath.Join(exPath, ".env")); err == nil {
				if err := os.Chdir(exPath); err != nil {
					fmt.Fprintln(os.Stderr, "Failed to change directory:", err)
					os.Exit(1)
				}
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(cfg.LogDir, logging.Options{
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"medicines_source", cfg.MedicinesSource,
		"diseases_source", cfg.DiseasesSource,
		"facets_source", cfg.FacetsSource,
		"refresh_at", cfg.RefreshAt,
		"assistant_enabled", cfg.OpenAIAPIKey != "")

	app, err := newApplication(cfg)
	if err != nil {
		logging.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}

// application is the wired service: loader, scheduler, session store and HTTP server.
type application struct {
	server    *server.Server
	scheduler *scheduler.Scheduler
	store     *store.SQLiteStore
	data      *data.DataContainer
}

// newApplication wires every component from cfg and performs the first data load.
// A failed first load is not fatal: /health and /medicines report it and the
// scheduler retries.
func newApplication(cfg *config.Config) (*application, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	kv, err := store.OpenSQLite(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	parser := medicinesparser.NewMedicinesParser(medicinesparser.Sources{
		Medicines: cfg.MedicinesSource,
		Diseases:  cfg.DiseasesSource,
		Facets:    cfg.FacetsSource,
	}, cfg.DownloadTimeout)

	sched := scheduler.NewScheduler(dataContainer, parser, cfg.RefreshAt).
		WithFacetExclude(catalog.PrimaryColumn).
		WithSessionPruning(kv, cfg.SessionTTL)
	if err := sched.Start(); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	llm := advisor.New(advisor.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	})

	handler := handlers.NewHTTPHandler(
		dataContainer,
		validation.NewDataValidator(),
		store.NewSessions(kv),
		llm,
		catalog,
		health.NewHealthChecker(dataContainer, cfg.RefreshAt, kv),
	)

	return &application{
		server:    server.NewServer(cfg, handler),
		scheduler: sched,
		store:     kv,
		data:      dataContainer,
	}, nil
}

// Close stops the scheduler and closes the session store.
func (a *application) Close() {
	a.scheduler.Stop()
	if err := a.store.Close(); err != nil {
		logging.Warn("Failed to close session store", "error", err)
	}
}
