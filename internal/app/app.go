// Package app wires configuration into the scraper, lookup and estimator
// components shared by cmd/server and cmd/pricectl.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/baxromumarov/price-scraper/internal/ai"
	"github.com/baxromumarov/price-scraper/internal/config"
	"github.com/baxromumarov/price-scraper/internal/core"
	"github.com/baxromumarov/price-scraper/internal/httpx"
	"github.com/baxromumarov/price-scraper/internal/scraper"
	"github.com/baxromumarov/price-scraper/internal/store"
)

// NewLogger builds the process logger: JSON lines by default, tint-coloured
// text when format is "text".
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)
	if cfg.Format == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func NewFetcher(cfg config.FetchConfig, logger *slog.Logger) *httpx.Fetcher {
	direct := httpx.NewCollyFetcher(httpx.CollyOptions{
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.Timeout,
		RespectRobots: cfg.RespectRobots,
		RateInterval:  cfg.RateInterval,
		RateBurst:     cfg.RateBurst,
	})
	browser := httpx.NewChromeRenderer(httpx.BrowserOptions{
		ExecPath:  cfg.BrowserPath,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.BrowserTimeout,
	})
	return httpx.NewFetcher(direct, browser, cfg.MinBodyLength, logger)
}

// App holds every long-lived component. Close releases the database.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        *store.Store
	Fetcher      *httpx.Fetcher
	Orchestrator *scraper.Orchestrator
	Lookup       *core.LookupService
	Estimator    *core.EstimateService
	Scheduler    *core.ScrapeScheduler
}

// New opens the database, applies the embedded schema and builds the
// scrape and lookup pipeline.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	fetcher := NewFetcher(cfg.Fetch, logger)
	runner := scraper.NewRunner(fetcher, db, logger)
	orchestrator := scraper.NewOrchestrator(runner, logger)

	lookup := core.NewLookupService(db, logger)
	aiClient := ai.NewClient(ai.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.GeminiAPIKey,
		Model:    cfg.AI.Model,
	}, logger)
	estimator := core.NewEstimateService(lookup, aiClient, cfg.StoreNames(), logger)
	scheduler := core.NewScrapeScheduler(orchestrator, cfg.Stores, cfg.Scrape.Interval, logger)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        db,
		Fetcher:      fetcher,
		Orchestrator: orchestrator,
		Lookup:       lookup,
		Estimator:    estimator,
		Scheduler:    scheduler,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
