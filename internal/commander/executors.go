package commander

import (
	"context"
	"fmt"
	"strings"

	"recallhub/internal/match"
	"recallhub/internal/recalls"
	"recallhub/internal/textutil"
)

// Output keys produced by the recall lookup executor and consumed by the
// commander when shaping its response.
const (
	outputMatched    = "matched"
	outputRecord     = "record"
	outputRiskLevel  = "risk_level"
	outputSummary    = "summary"
	outputConfidence = "confidence"
	outputMatchType  = "match_type"
)

// RecallLookupExecutor adapts the matching engine to the step contract.
type RecallLookupExecutor struct {
	engine *match.Engine
}

// NewRecallLookupExecutor wraps a matching engine.
func NewRecallLookupExecutor(engine *match.Engine) *RecallLookupExecutor {
	return &RecallLookupExecutor{engine: engine}
}

func (e *RecallLookupExecutor) Execute(ctx context.Context, inputs map[string]any) (StepOutput, error) {
	req := match.Request{
		ModelNumber: inputString(inputs, "model_number"),
		Barcode:     inputString(inputs, "barcode"),
		LotNumber:   inputString(inputs, "lot_number"),
		ProductName: inputString(inputs, "product_name"),
	}

	result, err := e.engine.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if !result.Matched {
		return StepOutput{outputMatched: false}, nil
	}

	best := result.Best()
	return StepOutput{
		outputMatched:    true,
		outputRecord:     best,
		outputRiskLevel:  riskLevel(best),
		outputSummary:    summarize(best),
		outputConfidence: string(result.Confidence),
		outputMatchType:  string(result.MatchType),
	}, nil
}

func inputString(inputs map[string]any, key string) string {
	value, ok := inputs[key]
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return strings.TrimSpace(text)
}

// riskLevel derives a user-facing risk label from whatever
// classification the record carries.
func riskLevel(record *recalls.Record) string {
	if record == nil {
		return ""
	}
	if record.Severity != "" {
		return string(record.Severity)
	}
	if record.RecallClass != "" {
		return record.RecallClass
	}
	if record.RiskCategory != "" {
		return record.RiskCategory
	}
	return ""
}

func summarize(record *recalls.Record) string {
	if record == nil {
		return ""
	}
	// Agency feeds frequently ship names in all caps.
	name := textutil.DisplayTitle(record.ProductName)
	if record.Hazard != "" {
		return fmt.Sprintf("%s recalled by %s: %s", name, record.SourceAgency, record.Hazard)
	}
	return fmt.Sprintf("%s recalled by %s", name, record.SourceAgency)
}
