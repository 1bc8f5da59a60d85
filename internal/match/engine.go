package match

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"recallhub/internal/config"
	"recallhub/internal/logging"
	"recallhub/internal/recalls"
	"recallhub/internal/services"
	"recallhub/internal/textutil"
)

// Confidence grades how trustworthy a match is. Callers use it to decide
// between a direct hazard warning and an "inconclusive, possible
// matches" presentation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MatchType names the lookup tier that produced a result.
type MatchType string

const (
	MatchModelNumber MatchType = "model_number"
	MatchBarcode     MatchType = "barcode"
	MatchLotNumber   MatchType = "lot_number"
	MatchFuzzyName   MatchType = "fuzzy_name"
)

// Request carries whatever partial identity the caller has. Every field
// is optional but at least one must be populated.
type Request struct {
	ModelNumber string
	Barcode     string
	LotNumber   string
	ProductName string
}

// HasIdentifier reports whether the request carries anything usable.
func (r Request) HasIdentifier() bool {
	return strings.TrimSpace(r.ModelNumber) != "" ||
		strings.TrimSpace(r.Barcode) != "" ||
		strings.TrimSpace(r.LotNumber) != "" ||
		strings.TrimSpace(r.ProductName) != ""
}

// Candidate pairs a matched record with its rank score. Exact tiers
// score 1; the fuzzy tier scores by token overlap in (0, 1].
type Candidate struct {
	Record *recalls.Record
	Score  float64
}

// Result is the outcome of one resolution. The ordinary "nothing
// matched" case is a Result with Matched false, never an error.
type Result struct {
	Matched    bool
	MatchType  MatchType
	Confidence Confidence
	Candidates []Candidate
}

// Best returns the top-ranked record, or nil when nothing matched.
func (r *Result) Best() *recalls.Record {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].Record
}

// Engine performs read-only identity resolution against the recall
// store. It is safe for concurrent use.
type Engine struct {
	store  *recalls.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewEngine constructs a matching engine.
func NewEngine(store *recalls.Store, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:  store,
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "match")),
	}
}

// Resolve walks the fallback chain in strict priority order and stops at
// the first tier that yields results:
//
//  1. model number, exact and case-insensitive
//  2. barcode/UPC, exact
//  3. lot number, exact
//  4. product name, fuzzy against name and search keywords
//
// A request with no usable identifier is a caller error.
func (e *Engine) Resolve(ctx context.Context, req Request) (*Result, error) {
	if !req.HasIdentifier() {
		return nil, services.Wrap(services.ErrAmbiguousInput, "match", "resolve", "", nil)
	}

	tiers := []struct {
		value      string
		kind       recalls.IdentifierKind
		matchType  MatchType
		confidence Confidence
	}{
		{req.ModelNumber, recalls.IdentifierModelNumber, MatchModelNumber, ConfidenceHigh},
		{req.Barcode, recalls.IdentifierUPC, MatchBarcode, ConfidenceHigh},
		{req.LotNumber, recalls.IdentifierLotNumber, MatchLotNumber, ConfidenceMedium},
	}

	for _, tier := range tiers {
		value := strings.TrimSpace(tier.value)
		if value == "" {
			continue
		}
		records, err := e.store.FindByIdentifier(ctx, tier.kind, value)
		if err != nil {
			return nil, services.Wrap(services.ErrStore, "match", "find by "+string(tier.kind), "", err)
		}
		if len(records) == 0 {
			continue
		}
		e.logger.Debug("identifier tier matched",
			logging.String("tier", string(tier.matchType)),
			logging.Int("hits", len(records)))
		return e.exactResult(records, tier.matchType, tier.confidence), nil
	}

	if name := strings.TrimSpace(req.ProductName); name != "" {
		return e.resolveByName(ctx, name)
	}

	return &Result{Matched: false}, nil
}

func (e *Engine) exactResult(records []*recalls.Record, matchType MatchType, confidence Confidence) *Result {
	limit := e.resultLimit()
	if len(records) > limit {
		records = records[:limit]
	}
	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, Candidate{Record: record, Score: 1})
	}
	return &Result{
		Matched:    true,
		MatchType:  matchType,
		Confidence: confidence,
		Candidates: candidates,
	}
}

// resolveByName ranks name-search hits by token overlap between the
// query and the record's name plus keywords, dropping hits below the
// configured score floor. Equal-overlap ties break by fingerprint
// cosine similarity against the product name, then recall date, then
// agency so the ordering is deterministic.
func (e *Engine) resolveByName(ctx context.Context, name string) (*Result, error) {
	limit := e.resultLimit()

	// Over-fetch so the score floor and re-ranking have room to work.
	records, err := e.store.SearchByName(ctx, name, limit*4)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "match", "search by name", "", err)
	}

	queryPrint := textutil.NewFingerprint(name)
	minScore := e.minNameScore()
	type ranked struct {
		Candidate
		nameSim float64
	}
	hits := make([]ranked, 0, len(records))
	for _, record := range records {
		score := textutil.OverlapScore(name, record.ProductName+" "+record.SearchKeywords)
		if score < minScore {
			continue
		}
		hits = append(hits, ranked{
			Candidate: Candidate{Record: record, Score: score},
			nameSim:   queryPrint.Similarity(textutil.NewFingerprint(record.ProductName)),
		})
	}
	if len(hits) == 0 {
		return &Result{Matched: false}, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].nameSim != hits[j].nameSim {
			return hits[i].nameSim > hits[j].nameSim
		}
		if !hits[i].Record.RecallDate.Equal(hits[j].Record.RecallDate) {
			return hits[i].Record.RecallDate.After(hits[j].Record.RecallDate)
		}
		return hits[i].Record.SourceAgency < hits[j].Record.SourceAgency
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, hit.Candidate)
	}

	e.logger.Debug("fuzzy name tier matched", logging.Int("hits", len(candidates)))
	return &Result{
		Matched:    true,
		MatchType:  MatchFuzzyName,
		Confidence: ConfidenceLow,
		Candidates: candidates,
	}, nil
}

func (e *Engine) resultLimit() int {
	if e.cfg != nil && e.cfg.Matching.ResultLimit > 0 {
		return e.cfg.Matching.ResultLimit
	}
	return 20
}

func (e *Engine) minNameScore() float64 {
	if e.cfg != nil && e.cfg.Matching.MinNameScore > 0 {
		return e.cfg.Matching.MinNameScore
	}
	return 0.15
}
