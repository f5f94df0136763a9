package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/baxromumarov/price-scraper/internal/observability"
)

type StoreResult struct {
	Store    string        `json:"store"`
	Products int           `json:"products"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	err      error
}

func (r StoreResult) Err() error {
	return r.err
}

type RunReport struct {
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Results  []StoreResult `json:"results"`
}

func (r RunReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.err != nil {
			n++
		}
	}
	return n
}

// Orchestrator runs stores one after another. A failing store is logged and
// skipped; it never stops the stores after it.
type Orchestrator struct {
	runner StoreRunner
	logger *slog.Logger
}

func NewOrchestrator(runner StoreRunner, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{runner: runner, logger: logger}
}

func (o *Orchestrator) RunAll(ctx context.Context, ds []Descriptor) RunReport {
	report := RunReport{Started: time.Now()}
	o.logger.Info("starting scraper", "stores", len(ds))

	for _, d := range ds {
		select {
		case <-ctx.Done():
			o.logger.Warn("scrape pass cancelled", "error", ctx.Err())
			report.Finished = time.Now()
			return report
		default:
		}
		report.Results = append(report.Results, o.runOne(ctx, d))
	}

	report.Finished = time.Now()
	o.logger.Info("all stores processed",
		"stores", len(report.Results),
		"failed", report.Failed(),
		"duration", report.Finished.Sub(report.Started).String(),
	)
	return report
}

func (o *Orchestrator) runOne(ctx context.Context, d Descriptor) (res StoreResult) {
	res.Store = d.Name
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res.err = fmt.Errorf("panic while scraping %s: %v", d.Name, p)
		}
		res.Duration = time.Since(start)
		observability.ObserveStoreRunDuration(res.Duration.Seconds())
		observability.IncStoreRun(res.err != nil)
		if res.err != nil {
			res.Error = res.err.Error()
			res.Products = 0
			observability.IncError(observability.ClassifyScrapeError(res.err), "scraper")
			o.logger.Error("failed to scrape store", "store", d.Name, "error", res.err)
		}
	}()

	res.Products, res.err = o.runner.Run(ctx, d)
	return res
}
