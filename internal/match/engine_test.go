package match_test

import (
	"context"
	"errors"
	"testing"
	"time"

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

func newEngine(t *testing.T, opts ...testsupport.ConfigOption) (*match.Engine, *recalls.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	return match.NewEngine(store, cfg, logging.NewNop()), store
}

func TestResolveModelNumberCaseInsensitive(t *testing.T) {
	engine, store := newEngine(t)
	testsupport.SeedRecord(t, store, "CPSC-X1", "CPSC", "Infant Swing", date("2026-03-01"), func(r *recalls.Record) {
		r.ModelNumber = "ABC-123"
	})

	result, err := engine.Resolve(context.Background(), match.Request{ModelNumber: "abc-123"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.Matched {
		t.Fatal("expected a match")
	}
	if result.MatchType != match.MatchModelNumber {
		t.Fatalf("expected model tier, got %s", result.MatchType)
	}
	if result.Confidence != match.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", result.Confidence)
	}
	if best := result.Best(); best == nil || best.RecallID != "CPSC-X1" {
		t.Fatalf("unexpected best match: %v", best)
	}
}

func TestResolveStopsAtFirstNonEmptyTier(t *testing.T) {
	engine, store := newEngine(t)
	testsupport.SeedRecord(t, store, "CPSC-1", "CPSC", "Blender", date("2026-01-01"), func(r *recalls.Record) {
		r.ModelNumber = "BL-7"
	})
	testsupport.SeedRecord(t, store, "FDA-2", "FDA", "Blender Pro", date("2026-02-01"), func(r *recalls.Record) {
		r.UPC = "012345678905"
	})

	// Both identifiers are present; the model tier must win and the
	// barcode hit must not leak into the result.
	result, err := engine.Resolve(context.Background(), match.Request{
		ModelNumber: "BL-7",
		Barcode:     "012345678905",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.MatchType != match.MatchModelNumber {
		t.Fatalf("expected model tier priority, got %s", result.MatchType)
	}
	if len(result.Candidates) != 1 || result.Best().RecallID != "CPSC-1" {
		t.Fatalf("unexpected candidates: %v", result.Candidates)
	}
}

func TestResolveFallsThroughEmptyTiers(t *testing.T) {
	engine, store := newEngine(t)
	testsupport.SeedRecord(t, store, "FDA-2", "FDA", "Blender Pro", date("2026-02-01"), func(r *recalls.Record) {
		r.UPC = "012345678905"
	})

	// Model number matches nothing, so resolution falls to the barcode.
	result, err := engine.Resolve(context.Background(), match.Request{
		ModelNumber: "NO-SUCH-MODEL",
		Barcode:     "012345678905",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.MatchType != match.MatchBarcode {
		t.Fatalf("expected barcode tier, got %s", result.MatchType)
	}
	if result.Confidence != match.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", result.Confidence)
	}
}

func TestResolveLotNumberMediumConfidence(t *testing.T) {
	engine, store := newEngine(t)
	testsupport.SeedRecord(t, store, "HC-77", "HEALTH-CANADA", "Maple Syrup", date("2026-05-04"), func(r *recalls.Record) {
		r.LotNumber = "L-2026-17"
	})

	result, err := engine.Resolve(context.Background(), match.Request{LotNumber: "L-2026-17"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.MatchType != match.MatchLotNumber {
		t.Fatalf("expected lot tier, got %s", result.MatchType)
	}
	if result.Confidence != match.ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %s", result.Confidence)
	}
}

func TestResolveFuzzyNameRankedByOverlap(t *testing.T) {
	engine, store := newEngine(t)
	testsupport.SeedRecord(t, store, "CPSC-1", "CPSC", "Acme Infant Swing", date("2026-03-01"), nil)
	testsupport.SeedRecord(t, store, "CPSC-2", "CPSC", "Infant Bouncer Swing Deluxe", date("2026-01-01"), nil)
	testsupport.SeedRecord(t, store, "FDA-3", "FDA", "Cough Syrup", date("2026-04-01"), nil)

	result, err := engine.Resolve(context.Background(), match.Request{ProductName: "infant swing"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.MatchType != match.MatchFuzzyName {
		t.Fatalf("expected fuzzy tier, got %s", result.MatchType)
	}
	if result.Confidence != match.ConfidenceLow {
		t.Fatalf("expected low confidence, got %s", result.Confidence)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected two swing candidates, got %d", len(result.Candidates))
	}
	for _, candidate := range result.Candidates {
		if candidate.Record.RecallID == "FDA-3" {
			t.Fatal("unrelated record must not appear in fuzzy results")
		}
		if candidate.Score <= 0 || candidate.Score > 1 {
			t.Fatalf("score out of range: %f", candidate.Score)
		}
	}
}

func TestResolveFuzzyTieBreakDeterministic(t *testing.T) {
	engine, store := newEngine(t)
	testsupport.SeedRecord(t, store, "FDA-1", "FDA", "Pressure Cooker", date("2026-01-10"), nil)
	testsupport.SeedRecord(t, store, "ACCC-2", "ACCC", "Pressure Cooker", date("2026-01-10"), nil)
	testsupport.SeedRecord(t, store, "CPSC-3", "CPSC", "Pressure Cooker", date("2026-02-10"), nil)

	result, err := engine.Resolve(context.Background(), match.Request{ProductName: "pressure cooker"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(result.Candidates))
	}
	// Equal scores: newest recall first, then agency lexical order.
	got := []string{
		result.Candidates[0].Record.RecallID,
		result.Candidates[1].Record.RecallID,
		result.Candidates[2].Record.RecallID,
	}
	want := []string{"CPSC-3", "ACCC-2", "FDA-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v, want %v", got, want)
		}
	}
}

func TestResolveCapsResultCount(t *testing.T) {
	engine, store := newEngine(t, testsupport.WithResultLimit(3))
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		testsupport.SeedRecord(t, store, "CPSC-"+id, "CPSC", "Folding Chair "+id, date("2026-01-01"), nil)
	}

	result, err := engine.Resolve(context.Background(), match.Request{ProductName: "folding chair"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("expected capped result set, got %d", len(result.Candidates))
	}
}

func TestResolveNilConfigUsesDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := match.NewEngine(store, nil, logging.NewNop())
	testsupport.SeedRecord(t, store, "CPSC-1", "CPSC", "Infant Swing", date("2026-03-01"), nil)

	result, err := engine.Resolve(context.Background(), match.Request{ProductName: "infant swing"})
	if err != nil {
		t.Fatalf("Resolve with nil config failed: %v", err)
	}
	if !result.Matched || result.Best().RecallID != "CPSC-1" {
		t.Fatalf("expected fuzzy match with default thresholds, got %+v", result)
	}
}

func TestResolveNoMatchIsResultNotError(t *testing.T) {
	engine, _ := newEngine(t)

	result, err := engine.Resolve(context.Background(), match.Request{ModelNumber: "GHOST-1"})
	if err != nil {
		t.Fatalf("no-match must not error: %v", err)
	}
	if result.Matched {
		t.Fatal("expected no match")
	}
	if result.Best() != nil {
		t.Fatal("expected nil best record")
	}
}

func TestResolveEmptyRequestRejected(t *testing.T) {
	engine, _ := newEngine(t)

	if _, err := engine.Resolve(context.Background(), match.Request{}); !errors.Is(err, services.ErrAmbiguousInput) {
		t.Fatalf("expected ambiguous input error, got %v", err)
	}
	if _, err := engine.Resolve(context.Background(), match.Request{ModelNumber: "   "}); !errors.Is(err, services.ErrAmbiguousInput) {
		t.Fatalf("whitespace-only request must be rejected, got %v", err)
	}
}
