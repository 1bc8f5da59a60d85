package commander_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"recallhub/internal/commander"
	"recallhub/internal/logging"
	"recallhub/internal/match"
	"recallhub/internal/recalls"
	"recallhub/internal/services"
	"recallhub/internal/testsupport"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

// failingRouter always reports a step failure.
type failingRouter struct{}

func (failingRouter) ExecutePlan(ctx context.Context, plan *commander.Plan) (*commander.ExecutionResult, error) {
	return nil, services.Wrap(services.ErrStepExecution, "router", "step lookup", "capability backend unreachable", nil)
}

// failingPlanner cannot produce a plan.
type failingPlanner struct{}

func (failingPlanner) BuildPlan(ctx context.Context, req commander.Request) (*commander.Plan, error) {
	return nil, services.Wrap(services.ErrStepExecution, "planner", "build plan", "planner backend unreachable", nil)
}

func newCommander(t *testing.T) (*commander.Commander, *recalls.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := match.NewEngine(store, cfg, logging.NewNop())

	router := commander.NewRegistryRouter(logging.NewNop())
	router.Register(commander.CapabilityRecallLookup, commander.NewRecallLookupExecutor(engine))

	return commander.New(commander.NewBuiltinPlanner(), router, store, logging.NewNop()), store
}

func TestRunCompletesWithClassifiedMatch(t *testing.T) {
	cmd, store := newCommander(t)
	testsupport.SeedRecord(t, store, "CPSC-X1", "CPSC", "Infant Swing", date("2026-03-01"), func(r *recalls.Record) {
		r.ModelNumber = "ABC-123"
		r.Hazard = "fall hazard"
		r.Severity = recalls.SeverityHigh
	})

	resp, err := cmd.Run(context.Background(), commander.Request{ModelNumber: "abc-123"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateCompleted {
		t.Fatalf("expected completed, got %s (%s)", resp.Status, resp.Error)
	}
	if resp.Data == nil || resp.Data.Record == nil || resp.Data.Record.RecallID != "CPSC-X1" {
		t.Fatalf("unexpected finding: %+v", resp.Data)
	}
	if resp.Data.RiskLevel != "high" {
		t.Fatalf("expected risk level from severity, got %q", resp.Data.RiskLevel)
	}
	if resp.Data.Confidence != "high" {
		t.Fatalf("expected high confidence, got %q", resp.Data.Confidence)
	}
}

func TestRunInconclusiveWhenNothingMatches(t *testing.T) {
	cmd, _ := newCommander(t)

	resp, err := cmd.Run(context.Background(), commander.Request{ModelNumber: "GHOST-1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateInconclusive {
		t.Fatalf("no-match must be inconclusive, not %s", resp.Status)
	}
	if resp.Error != "" {
		t.Fatalf("inconclusive is not a system error, got %q", resp.Error)
	}
	if resp.Data == nil || resp.Data.Summary == "" {
		t.Fatal("inconclusive must carry a neutral explanation")
	}
}

func TestRunInconclusiveWithoutRiskClassification(t *testing.T) {
	cmd, store := newCommander(t)
	// A record that matched but carries no hazard information.
	testsupport.SeedRecord(t, store, "CPSC-X2", "CPSC", "Desk Lamp", date("2026-02-01"), func(r *recalls.Record) {
		r.ModelNumber = "DL-5"
	})

	resp, err := cmd.Run(context.Background(), commander.Request{ModelNumber: "DL-5"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateInconclusive {
		t.Fatalf("unclassified match must be inconclusive, got %s", resp.Status)
	}
	if resp.Data == nil || resp.Data.Record == nil {
		t.Fatal("inconclusive reclassification must keep the matched record")
	}
}

func TestRunRejectsEmptyRequest(t *testing.T) {
	cmd, _ := newCommander(t)

	if _, err := cmd.Run(context.Background(), commander.Request{}); !errors.Is(err, services.ErrAmbiguousInput) {
		t.Fatalf("expected ambiguous input rejection, got %v", err)
	}
}

func TestRunFailsWhenPlanningFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cmd := commander.New(failingPlanner{}, commander.NewRegistryRouter(logging.NewNop()), store, logging.NewNop())

	resp, err := cmd.Run(context.Background(), commander.Request{ModelNumber: "ABC-123"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateFailed {
		t.Fatalf("planning failure must fail the run, got %s", resp.Status)
	}
	if resp.Error == "" {
		t.Fatal("failed response must carry a reason")
	}
}

func TestRunFallbackRecoversFromStepFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedRecord(t, store, "CPSC-X1", "CPSC", "Infant Swing", date("2026-03-01"), func(r *recalls.Record) {
		r.ModelNumber = "ABC-123-XL"
		r.Hazard = "fall hazard"
	})
	cmd := commander.New(commander.NewBuiltinPlanner(), failingRouter{}, store, logging.NewNop())

	// The fallback uses a contains match on the model fragment.
	resp, err := cmd.Run(context.Background(), commander.Request{ModelNumber: "ABC-123"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateCompleted {
		t.Fatalf("fallback hit must resolve completed, got %s (%s)", resp.Status, resp.Error)
	}
	if resp.Data == nil || resp.Data.Record == nil || resp.Data.Record.RecallID != "CPSC-X1" {
		t.Fatalf("unexpected fallback finding: %+v", resp.Data)
	}
	if resp.Data.MatchType != "fallback" {
		t.Fatalf("expected fallback match type, got %q", resp.Data.MatchType)
	}
}

func TestRunFallbackBarcodeExact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedRecord(t, store, "FDA-9", "FDA", "Cough Syrup", date("2026-04-01"), func(r *recalls.Record) {
		r.UPC = "012345678905"
		r.Hazard = "contamination"
	})
	cmd := commander.New(commander.NewBuiltinPlanner(), failingRouter{}, store, logging.NewNop())

	resp, err := cmd.Run(context.Background(), commander.Request{Barcode: "012345678905"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateCompleted {
		t.Fatalf("expected completed via barcode fallback, got %s", resp.Status)
	}
}

func TestRunFallbackMissPreservesOriginalError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cmd := commander.New(commander.NewBuiltinPlanner(), failingRouter{}, store, logging.NewNop())

	resp, err := cmd.Run(context.Background(), commander.Request{ModelNumber: "GHOST-1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateFailed {
		t.Fatalf("fallback miss must fail the run, got %s", resp.Status)
	}
	if resp.Error == "" {
		t.Fatal("failed run must carry the original step error")
	}
}

func TestRunImageOnlyRequestFailsInPlanning(t *testing.T) {
	cmd, _ := newCommander(t)

	// An image reference alone passes request validation but the builtin
	// planner cannot build a lookup step from it.
	resp, err := cmd.Run(context.Background(), commander.Request{ImageReference: "shelf-photo-17.jpg"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Status != commander.StateFailed {
		t.Fatalf("expected planning failure, got %s", resp.Status)
	}
}
