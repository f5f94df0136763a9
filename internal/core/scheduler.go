package core

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baxromumarov/price-scraper/internal/scraper"
)

type PassRunner interface {
	RunAll(ctx context.Context, ds []scraper.Descriptor) scraper.RunReport
}

// ScrapeScheduler owns the single-writer rule: at most one scrape pass runs at
// a time, whether started by the ticker, the CLI or the API.
type ScrapeScheduler struct {
	runner   PassRunner
	stores   []scraper.Descriptor
	interval time.Duration
	logger   *slog.Logger

	running atomic.Bool
	passes  sync.WaitGroup
	baseCtx context.Context

	mu   sync.Mutex
	last *scraper.RunReport
}

func NewScrapeScheduler(runner PassRunner, stores []scraper.Descriptor, interval time.Duration, logger *slog.Logger) *ScrapeScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScrapeScheduler{
		runner:   runner,
		stores:   stores,
		interval: interval,
		logger:   logger,
		baseCtx:  context.Background(),
	}
}

func (s *ScrapeScheduler) Stores() []scraper.Descriptor {
	return s.stores
}

// Start launches the periodic loop. An interval of zero disables it; runOnStart
// still triggers one pass.
func (s *ScrapeScheduler) Start(ctx context.Context, runOnStart bool) {
	s.baseCtx = ctx
	go s.scrapeLoop(ctx, runOnStart)
}

func (s *ScrapeScheduler) scrapeLoop(ctx context.Context, runOnStart bool) {
	if runOnStart {
		s.TryRun(ctx)
	}
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TryRun(ctx)
		}
	}
}

// TryRun runs one pass synchronously. It returns false without running when
// another pass is in progress.
func (s *ScrapeScheduler) TryRun(ctx context.Context) (scraper.RunReport, bool) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("scrape pass already running, skipping")
		return scraper.RunReport{}, false
	}
	s.passes.Add(1)
	return s.run(ctx), true
}

// Trigger starts a pass in the background and reports whether it started.
func (s *ScrapeScheduler) Trigger() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.passes.Add(1)
	go s.run(s.baseCtx)
	return true
}

func (s *ScrapeScheduler) run(ctx context.Context) scraper.RunReport {
	defer s.passes.Done()
	defer s.running.Store(false)
	report := s.runner.RunAll(ctx, s.stores)
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	return report
}

// Wait blocks until no pass is in progress or ctx is done. Callers close the
// product store only after Wait returns nil.
func (s *ScrapeScheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.passes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ScrapeScheduler) Running() bool {
	return s.running.Load()
}

func (s *ScrapeScheduler) LastReport() (scraper.RunReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return scraper.RunReport{}, false
	}
	return *s.last, true
}
