package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baxromumarov/price-scraper/internal/api"
	"github.com/baxromumarov/price-scraper/internal/app"
	"github.com/baxromumarov/price-scraper/internal/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := app.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer closeAfterDrain(a)

	// Start scraping loop
	a.Scheduler.Start(ctx, cfg.Scrape.OnStart)

	srv := api.NewServer(api.Deps{
		Store:          a.Store,
		Lookup:         a.Lookup,
		Estimator:      a.Estimator,
		Scheduler:      a.Scheduler,
		Stores:         cfg.Stores,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server", "port", cfg.Server.Port, "stores", len(cfg.Stores))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		return err
	}
	slog.Info("server stopped")
	return nil
}

// closeAfterDrain waits for an in-flight scrape pass before closing the database.
func closeAfterDrain(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Scheduler.Wait(ctx); err != nil {
		slog.Warn("scrape pass still running at shutdown", "error", err)
	}
	if err := a.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
}
