package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"recallhub/internal/config"
	"recallhub/internal/logging"
	"recallhub/internal/recalls"
	"recallhub/internal/services"
)

// countsFlushInterval controls how many items pass between persisted
// progress updates while a run is in flight.
const countsFlushInterval = 25

// storeFailureThreshold aborts a run into failed once this many
// consecutive store writes fail, on the assumption that persistence is
// down rather than the items being bad.
const storeFailureThreshold = 5

// Notifier receives run lifecycle events.
type Notifier interface {
	RunCompleted(ctx context.Context, run *recalls.Run)
	RunFailed(ctx context.Context, run *recalls.Run, cause string)
}

// Report summarizes one ingestion attempt. AlreadyRunning is set when a
// run for the same (agency, mode) was still active, in which case no new
// run was created and the remaining fields are zero.
type Report struct {
	Run            *recalls.Run
	Status         recalls.RunStatus
	Counts         recalls.RunCounts
	AlreadyRunning bool
}

// Orchestrator drives one agency ingestion run at a time: fetch raw
// notices through a connector, canonicalize, and upsert into the store
// under run bookkeeping.
type Orchestrator struct {
	store    *recalls.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier Notifier
}

// NewOrchestrator constructs an ingestion orchestrator. The notifier may
// be nil.
func NewOrchestrator(store *recalls.Store, cfg *config.Config, logger *slog.Logger, notifier Notifier) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		store:    store,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "ingest")),
		notifier: notifier,
	}
}

// Run executes a full ingestion cycle for the connector's agency.
// Cancellation is cooperative: the loop checks ctx between items and
// finishes the in-flight item before recording the run as cancelled.
// A run already active for the same (agency, mode) is reported through
// Report.AlreadyRunning rather than as an error.
func (o *Orchestrator) Run(ctx context.Context, connector Connector, mode, initiatedBy string) (*Report, error) {
	agency := strings.ToUpper(strings.TrimSpace(connector.Agency()))
	traceID := uuid.NewString()

	ctx = services.WithAgency(ctx, agency)
	ctx = services.WithTraceID(ctx, traceID)
	logger := logging.WithContext(ctx, o.logger).With(logging.String(logging.FieldMode, mode))

	run, err := o.store.StartRun(ctx, agency, mode, initiatedBy, traceID)
	if err != nil {
		if errors.Is(err, recalls.ErrRunAlreadyActive) {
			logger.Info("ingestion already in progress, skipping",
				logging.String(logging.FieldEventType, "run_skipped"))
			return &Report{AlreadyRunning: true}, nil
		}
		return nil, services.Wrap(services.ErrStore, "ingest", "start run", "", err)
	}
	ctx = services.WithRunID(ctx, run.ID)
	logger = logger.With(logging.String(logging.FieldRunID, run.ID))
	logger.Info("ingestion run started", logging.String(logging.FieldEventType, "run_started"))

	fetchCtx, cancelFetch := context.WithTimeout(ctx, time.Duration(o.cfg.Ingest.FetchTimeout)*time.Second)
	notices, err := connector.Fetch(fetchCtx, mode)
	cancelFetch()
	if err != nil {
		wrapped := services.Wrap(services.ErrConnector, "ingest", "fetch "+agency, "", err)
		return o.finish(ctx, logger, run, recalls.RunFailed, recalls.RunCounts{}, wrapped)
	}
	logger.Info("fetched notices", logging.Int("notices", len(notices)))

	var counts recalls.RunCounts
	consecutiveStoreFailures := 0

	for index, notice := range notices {
		if ctx.Err() != nil {
			logger.Info("cancellation requested, stopping between items",
				logging.String(logging.FieldEventType, "run_cancelled"),
				logging.Int("processed", index))
			return o.finish(ctx, logger, run, recalls.RunCancelled, counts, nil)
		}

		record, err := Canonicalize(agency, notice)
		if err != nil {
			counts.Skipped++
			logger.Debug("skipped unusable notice", logging.Error(err))
			continue
		}

		outcome, err := o.upsertDetached(ctx, record)
		if err != nil {
			if errors.Is(err, recalls.ErrMissingRequiredFields) {
				counts.Skipped++
				logger.Debug("skipped invalid record",
					logging.String(logging.FieldRecallID, record.RecallID),
					logging.Error(err))
				continue
			}
			counts.Failed++
			consecutiveStoreFailures++
			logger.Warn("store write failed",
				logging.String(logging.FieldRecallID, record.RecallID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check recall database access"))
			if consecutiveStoreFailures >= storeFailureThreshold {
				wrapped := services.Wrap(services.ErrStore, "ingest", "upsert",
					fmt.Sprintf("%d consecutive store failures, aborting run", consecutiveStoreFailures), err)
				return o.finish(ctx, logger, run, recalls.RunFailed, counts, wrapped)
			}
			continue
		}
		consecutiveStoreFailures = 0

		switch outcome {
		case recalls.OutcomeInserted:
			counts.Inserted++
		case recalls.OutcomeUpdated:
			counts.Updated++
		}

		if (index+1)%countsFlushInterval == 0 {
			if err := o.store.UpdateRunCounts(ctx, run.ID, counts); err != nil {
				logger.Warn("failed to persist run progress", logging.Error(err))
			}
		}
	}

	status := recalls.RunSuccess
	var runErr error
	if counts.Failed > 0 {
		if counts.Processed() > 0 {
			status = recalls.RunPartial
		} else {
			status = recalls.RunFailed
		}
		runErr = services.Wrap(services.ErrConnector, "ingest", "run",
			fmt.Sprintf("%d of %d items failed", counts.Failed, len(notices)), nil)
	}
	return o.finish(ctx, logger, run, status, counts, runErr)
}

// upsertDetached writes one canonical record under the item timeout,
// detached from run cancellation. The between-items check in Run is the
// only cancellation point; an item already in flight always finishes.
func (o *Orchestrator) upsertDetached(ctx context.Context, record *recalls.Record) (recalls.UpsertOutcome, error) {
	itemCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(o.cfg.Ingest.ItemTimeout)*time.Second)
	defer cancel()
	return o.store.UpsertByRecallID(itemCtx, record)
}

// finish records the terminal status, emits the lifecycle log line and
// notification, and assembles the report. The wrapped cause is returned
// for failed runs so callers can route on the sentinel.
func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, run *recalls.Run, status recalls.RunStatus, counts recalls.RunCounts, cause error) (*Report, error) {
	// The terminal status must be recorded even when the caller's
	// context is already cancelled.
	ctx = context.WithoutCancel(ctx)

	errorText := ""
	if cause != nil {
		errorText = services.Message(cause)
	}

	if err := o.store.FinishRun(ctx, run.ID, status, counts, errorText); err != nil {
		logger.Error("failed to record run outcome", logging.Error(err))
		if cause == nil {
			cause = services.Wrap(services.ErrStore, "ingest", "finish run", "", err)
		}
	}
	run.Status = status
	run.Counts = counts
	run.ErrorText = errorText

	logger.Info("ingestion run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.String("status", string(status)),
		logging.Int("inserted", counts.Inserted),
		logging.Int("updated", counts.Updated),
		logging.Int("skipped", counts.Skipped),
		logging.Int("failed", counts.Failed),
	)

	if o.notifier != nil {
		switch status {
		case recalls.RunFailed:
			o.notifier.RunFailed(ctx, run, errorText)
		case recalls.RunSuccess, recalls.RunPartial:
			o.notifier.RunCompleted(ctx, run)
		}
	}

	report := &Report{Run: run, Status: status, Counts: counts}
	if status == recalls.RunFailed {
		return report, cause
	}
	return report, nil
}
