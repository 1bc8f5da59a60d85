package commander

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"recallhub/internal/logging"
	"recallhub/internal/match"
	"recallhub/internal/recalls"
	"recallhub/internal/services"
)

// State tracks a workflow run through its lifecycle.
type State string

const (
	StateStarted      State = "started"
	StatePlanning     State = "planning"
	StateExecuting    State = "executing"
	StateCompleted    State = "completed"
	StateInconclusive State = "inconclusive"
	StateFailed       State = "failed"
)

// Request is the unordered bag of optional identifiers a workflow run
// starts from. At least one field must be present.
type Request struct {
	Barcode        string
	ModelNumber    string
	ProductName    string
	LotNumber      string
	ImageReference string
}

// HasIdentifier reports whether any field is populated.
func (r Request) HasIdentifier() bool {
	return strings.TrimSpace(r.Barcode) != "" ||
		strings.TrimSpace(r.ModelNumber) != "" ||
		strings.TrimSpace(r.ProductName) != "" ||
		strings.TrimSpace(r.LotNumber) != "" ||
		strings.TrimSpace(r.ImageReference) != ""
}

// Finding is the data payload of a resolved workflow run.
type Finding struct {
	Record     *recalls.Record
	RiskLevel  string
	Summary    string
	Confidence string
	MatchType  string
}

// Response is the workflow run outcome. Failed responses always carry a
// human-readable Error; inconclusive responses carry a neutral Summary
// in Data explaining what was and was not found.
type Response struct {
	Status State
	Data   *Finding
	Error  string
}

// Store is the read-only slice of the recall store the fallback path
// uses.
type Store interface {
	SearchModelContains(ctx context.Context, fragment string, limit int) ([]*recalls.Record, error)
	FindByIdentifier(ctx context.Context, kind recalls.IdentifierKind, value string) ([]*recalls.Record, error)
}

// Commander sequences planning and execution for one lookup request and
// owns the fallback policy when execution fails.
type Commander struct {
	planner Planner
	router  Router
	store   Store
	logger  *slog.Logger
}

// New constructs a commander over its collaborators.
func New(planner Planner, router Router, store Store, logger *slog.Logger) *Commander {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Commander{
		planner: planner,
		router:  router,
		store:   store,
		logger:  logger.With(logging.String(logging.FieldComponent, "commander")),
	}
}

// Run drives one request through started, planning, and executing into a
// terminal state. The ordinary "nothing found" outcome is inconclusive,
// not failed; failed means the system itself could not complete the
// lookup. A request with no usable identifier is rejected before
// planning.
func (c *Commander) Run(ctx context.Context, req Request) (*Response, error) {
	if !req.HasIdentifier() {
		return nil, services.Wrap(services.ErrAmbiguousInput, "commander", "run", "", nil)
	}

	ctx = services.WithTraceID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, c.logger)
	state := StateStarted
	logger.Info("workflow run started", logging.String("state", string(state)))

	state = StatePlanning
	plan, err := c.planner.BuildPlan(ctx, req)
	if err != nil {
		logger.Warn("planning failed", logging.Error(err))
		return &Response{Status: StateFailed, Error: services.Message(err)}, nil
	}

	state = StateExecuting
	logger.Info("executing plan",
		logging.String("state", string(state)),
		logging.Int("steps", len(plan.Steps)))
	result, err := c.router.ExecutePlan(ctx, plan)
	if err != nil {
		logger.Warn("plan execution failed, attempting direct lookup", logging.Error(err))
		return c.fallback(ctx, logger, req, err), nil
	}

	return c.classify(result.Final), nil
}

// fallback performs one direct store lookup, bypassing the plan: first a
// model-number contains match, then an exact barcode match. A hit still
// resolves the run completed; otherwise the run fails carrying the
// original step error.
func (c *Commander) fallback(ctx context.Context, logger *slog.Logger, req Request, stepErr error) *Response {
	var record *recalls.Record

	if model := strings.TrimSpace(req.ModelNumber); model != "" {
		hits, err := c.store.SearchModelContains(ctx, model, 1)
		if err != nil {
			logger.Warn("fallback model lookup failed", logging.Error(err))
		} else if len(hits) > 0 {
			record = hits[0]
		}
	}
	if record == nil {
		if barcode := strings.TrimSpace(req.Barcode); barcode != "" {
			hits, err := c.store.FindByIdentifier(ctx, recalls.IdentifierUPC, barcode)
			if err != nil {
				logger.Warn("fallback barcode lookup failed", logging.Error(err))
			} else if len(hits) > 0 {
				record = hits[0]
			}
		}
	}

	if record == nil {
		logger.Warn("fallback found nothing, failing run")
		return &Response{Status: StateFailed, Error: services.Message(stepErr)}
	}

	logger.Info("fallback lookup recovered a record",
		logging.String(logging.FieldRecallID, record.RecallID))
	return c.classify(StepOutput{
		outputMatched:    true,
		outputRecord:     record,
		outputRiskLevel:  riskLevel(record),
		outputSummary:    summarize(record),
		outputConfidence: string(match.ConfidenceMedium),
		outputMatchType:  "fallback",
	})
}

// classify shapes the final payload into a response, reclassifying
// completed runs whose payload lacks a risk classification as
// inconclusive.
func (c *Commander) classify(final StepOutput) *Response {
	matched, _ := final[outputMatched].(bool)
	if !matched {
		return &Response{
			Status: StateInconclusive,
			Data: &Finding{
				Summary: "No recall notices matched the supplied product details.",
			},
		}
	}

	record, _ := final[outputRecord].(*recalls.Record)
	finding := &Finding{
		Record:     record,
		RiskLevel:  stringOutput(final, outputRiskLevel),
		Summary:    stringOutput(final, outputSummary),
		Confidence: stringOutput(final, outputConfidence),
		MatchType:  stringOutput(final, outputMatchType),
	}

	if !record.HasRiskClassification() {
		finding.Summary = "A possible recall match was found, but it carries no hazard classification. This is not a confirmation the product is unsafe."
		return &Response{Status: StateInconclusive, Data: finding}
	}
	return &Response{Status: StateCompleted, Data: finding}
}

func stringOutput(output StepOutput, key string) string {
	value, _ := output[key].(string)
	return value
}
