package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"recallhub/internal/config"
	"recallhub/internal/ingest"
	"recallhub/internal/logging"
	"recallhub/internal/recalls"
)

// pruneSweepInterval is how often the scheduler checks for expired runs.
const pruneSweepInterval = 6 * time.Hour

// Scheduler polls every configured feed on the ingest interval.
// Feeds run independently; the orchestrator's per-key guard is the only
// cross-feed coordination.
type Scheduler struct {
	cfg          *config.Config
	store        *recalls.Store
	orchestrator *ingest.Orchestrator
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler constructs a scheduler over the configured feeds.
func NewScheduler(cfg *config.Config, store *recalls.Store, orchestrator *ingest.Orchestrator, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		cfg:          cfg,
		store:        store,
		orchestrator: orchestrator,
		logger:       logger.With(logging.String(logging.FieldComponent, "scheduler")),
	}
}

// Start launches one polling goroutine per feed plus the prune sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, feed := range s.cfg.Ingest.Feeds {
		s.wg.Add(1)
		go s.runFeed(runCtx, feed)
	}
	s.wg.Add(1)
	go s.runPruneSweep(runCtx)

	s.logger.Info("scheduler started", logging.Int("feeds", len(s.cfg.Ingest.Feeds)))
	return nil
}

// Stop cancels the polling loops and waits for in-flight runs to record
// their terminal status.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runFeed(ctx context.Context, feed config.Feed) {
	defer s.wg.Done()

	logger := s.logger.With(
		logging.String(logging.FieldAgency, feed.Agency),
		logging.String(logging.FieldMode, feed.Mode),
	)
	connector := ingest.NewFeedConnector(feed, time.Duration(s.cfg.Ingest.FetchTimeout)*time.Second)
	interval := time.Duration(s.cfg.Ingest.PollInterval) * time.Second

	for {
		report, err := s.orchestrator.Run(ctx, connector, feed.Mode, "scheduler")
		switch {
		case err != nil:
			logger.Error("scheduled ingestion failed", logging.Error(err),
				logging.String(logging.FieldErrorHint, "check agency feed availability"))
		case report.AlreadyRunning:
			// A manual run is in flight; the next tick retries.
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// runPruneSweep deletes terminal runs older than the retention window.
func (s *Scheduler) runPruneSweep(ctx context.Context) {
	defer s.wg.Done()

	retention := time.Duration(s.cfg.Ingest.RunRetentionDays) * 24 * time.Hour
	if retention <= 0 {
		return
	}

	for {
		cutoff := time.Now().UTC().Add(-retention)
		pruned, err := s.store.PruneRuns(ctx, cutoff)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("run pruning failed", logging.Error(err))
		} else if pruned > 0 {
			s.logger.Info("pruned old ingestion runs", logging.Int64("pruned", pruned))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pruneSweepInterval):
		}
	}
}
