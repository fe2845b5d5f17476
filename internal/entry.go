// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/converter"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/linker"
	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/source"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/stats"
	"github.com/starford/ansuz/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	var logOut io.Writer = os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("input_path", cfg.Input.Path),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Initialize the LLM provider.
	provider, err := llm.New(llm.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init llm provider: %w", err)
	}

	var cache *llm.Cache
	if cfg.LLM.UseCache {
		cache = llm.OpenCache(cfg.LLM.CacheFile)
		defer func() {
			if err := cache.Save(); err != nil {
				logger.Warn("cache save failed", slog.String("error", err.Error()))
			}
		}()
	}

	// Seed the similarity corpus from previously converted notes so new
	// runs link against the whole vault, not just this session.
	corpus := linker.NewCorpus(linker.DefaultParams())
	if err := seedCorpus(corpus, db, logger); err != nil {
		logger.Warn("corpus seed failed", slog.String("error", err.Error()))
	}

	tracker := stats.New()

	// SSE broker (only wired to the pipeline in serve mode).
	var broker *sse.Broker
	var events converter.EventFunc
	if app.serve {
		broker = sse.NewBroker(2 * time.Second)
		defer broker.Close()
		events = broker.PublishProgress
	}

	svc := converter.New(store, db, provider, cache, corpus, tracker, logger, converter.Options{
		ChunkSize:           cfg.Input.ChunkSize,
		MaxLinks:            cfg.Linker.MaxLinks,
		SimilarityThreshold: cfg.Linker.SimilarityThreshold,
	}, events)

	// MCP mode: serve tools over stdio and nothing else.
	if app.mcp {
		logger.Info("Starting MCP server on stdio")
		mcpSrv := mcpserver.New(svc, store, db, corpus)
		return mcpSrv.ServeStdio()
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Batch conversion of existing input files.
	g.Go(func() error {
		if err := runBatch(gCtx, svc, cfg, tracker, store, logger); err != nil {
			return err
		}
		// One-shot mode: nothing left to wait for.
		if !app.watch && !app.serve {
			return context.Canceled
		}
		return nil
	})

	if app.watch {
		g.Go(func() error {
			return svc.Watch(gCtx, cfg.Input.Path, cfg.Input.IncludePatterns, cfg.Input.ExcludePatterns, logger)
		})
	}

	var httpServer *http.Server
	if app.serve {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		// Health check endpoints (unauthenticated).
		r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Mount("/api", api.NewRouter(svc, db, tracker, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

		httpServer = &http.Server{
			Addr:    cfg.App.HTTP.Address(),
			Handler: r,
		}

		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		if httpServer != nil {
			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped")
	return nil
}

// runBatch converts every matching file under the input path, workers at a
// time, then writes the run report into the vault.
func runBatch(ctx context.Context, svc *converter.Service, cfg *Config,
	tracker *stats.Tracker, store storage.Provider, logger *slog.Logger) error {
	files, err := source.Find(cfg.Input.Path, cfg.Input.IncludePatterns, cfg.Input.ExcludePatterns)
	if err != nil {
		return fmt.Errorf("find input files: %w", err)
	}
	if len(files) == 0 {
		logger.Info("no input files found", slog.String("path", cfg.Input.Path))
		return nil
	}

	logger.Info("batch conversion starting", slog.Int("files", len(files)))

	workers := cfg.App.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		g.Go(func() error {
			if _, err := svc.ProcessFile(gCtx, path); err != nil {
				// A failed file does not abort the batch.
				logger.Warn("file conversion failed",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report := tracker.Snapshot()
	logger.Info("batch conversion finished",
		slog.Int("files_processed", report.ProcessedFiles),
		slog.Int("notes_created", report.CreatedNotes),
		slog.Int("files_failed", report.FailedFiles))

	if path, err := tracker.SaveReport(store); err != nil {
		logger.Warn("stats report save failed", slog.String("error", err.Error()))
	} else {
		logger.Info("stats report written", slog.String("path", path))
	}
	return nil
}

// seedCorpus loads paths, titles, and bodies of previously indexed notes
// into the similarity corpus.
func seedCorpus(corpus *linker.Corpus, db *index.DB, logger *slog.Logger) error {
	entries, err := db.AllNotes()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := corpus.Insert(e.Path, e.Title, e.Body); err != nil {
			logger.Debug("corpus seed skip", slog.String("path", e.Path), slog.String("error", err.Error()))
		}
	}
	if len(entries) > 0 {
		logger.Info("similarity corpus seeded", slog.Int("notes", len(entries)))
	}
	return nil
}
