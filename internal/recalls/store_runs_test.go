package recalls_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"recallhub/internal/recalls"
	"recallhub/internal/testsupport"
)

func TestStartRunRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "CPSC", "delta", "test", "trace-1")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if run.Status != recalls.RunRunning {
		t.Fatalf("expected running status, got %s", run.Status)
	}

	if _, err := store.StartRun(ctx, "CPSC", "delta", "test", "trace-2"); !errors.Is(err, recalls.ErrRunAlreadyActive) {
		t.Fatalf("expected ErrRunAlreadyActive, got %v", err)
	}

	// A different agency or mode is not blocked.
	if _, err := store.StartRun(ctx, "FDA", "delta", "test", "trace-3"); err != nil {
		t.Fatalf("unexpected guard on different agency: %v", err)
	}
	if _, err := store.StartRun(ctx, "CPSC", "full", "test", "trace-4"); err != nil {
		t.Fatalf("unexpected guard on different mode: %v", err)
	}

	active, err := store.ActiveRuns(ctx)
	if err != nil {
		t.Fatalf("ActiveRuns failed: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("expected 3 active runs, got %d", len(active))
	}
}

func TestFinishRunTransitionsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "CPSC", "delta", "test", "")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	counts := recalls.RunCounts{Inserted: 3, Updated: 1, Skipped: 2, Failed: 1}
	if err := store.FinishRun(ctx, run.ID, recalls.RunPartial, counts, "2 items failed validation"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	// Terminal runs are immutable.
	if err := store.FinishRun(ctx, run.ID, recalls.RunSuccess, counts, ""); !errors.Is(err, recalls.ErrRunNotActive) {
		t.Fatalf("expected ErrRunNotActive on second finish, got %v", err)
	}

	fetched, err := store.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if fetched.Status != recalls.RunPartial {
		t.Fatalf("expected partial status, got %s", fetched.Status)
	}
	if fetched.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
	if fetched.Counts != counts {
		t.Fatalf("unexpected counts: %+v", fetched.Counts)
	}
	if fetched.ErrorText != "2 items failed validation" {
		t.Fatalf("unexpected error text: %q", fetched.ErrorText)
	}
}

func TestFinishRunRejectsNonTerminalStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "CPSC", "delta", "test", "")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := store.FinishRun(ctx, run.ID, recalls.RunRunning, recalls.RunCounts{}, ""); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestUpdateRunCountsPersistsProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "FDA", "full", "test", "")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	counts := recalls.RunCounts{Inserted: 10, Updated: 5}
	if err := store.UpdateRunCounts(ctx, run.ID, counts); err != nil {
		t.Fatalf("UpdateRunCounts failed: %v", err)
	}

	fetched, err := store.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if fetched.Counts != counts {
		t.Fatalf("unexpected counts: %+v", fetched.Counts)
	}
	if fetched.Status != recalls.RunRunning {
		t.Fatalf("count update should not change status, got %s", fetched.Status)
	}
}

func TestPruneRunsKeepsActiveRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	finished, err := store.StartRun(ctx, "CPSC", "delta", "test", "")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := store.FinishRun(ctx, finished.ID, recalls.RunSuccess, recalls.RunCounts{}, ""); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	if _, err := store.StartRun(ctx, "FDA", "delta", "test", ""); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	pruned, err := store.PruneRuns(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneRuns failed: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned run, got %d", pruned)
	}

	active, err := store.ActiveRuns(ctx)
	if err != nil {
		t.Fatalf("ActiveRuns failed: %v", err)
	}
	if len(active) != 1 || active[0].Agency != "FDA" {
		t.Fatalf("expected the running FDA run to survive pruning, got %v", active)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.StartRun(ctx, "CPSC", "delta", "test", "")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := store.FinishRun(ctx, first.ID, recalls.RunSuccess, recalls.RunCounts{}, ""); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	second, err := store.StartRun(ctx, "CPSC", "delta", "test", "")
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID {
		t.Fatalf("expected newest run first, got %s", runs[0].ID)
	}
}
