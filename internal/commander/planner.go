package commander

import (
	"context"
	"strings"

	"recallhub/internal/services"
)

// CapabilityRecallLookup resolves product identity against the recall
// store through the matching engine.
const CapabilityRecallLookup = "recall_lookup"

// BuiltinPlanner produces the default single-step lookup plan from
// whatever identifiers the request carries. It cannot plan around an
// image reference alone; that requires an upstream vision step to have
// already resolved a product name.
type BuiltinPlanner struct{}

// NewBuiltinPlanner constructs the default planner.
func NewBuiltinPlanner() *BuiltinPlanner {
	return &BuiltinPlanner{}
}

func (p *BuiltinPlanner) BuildPlan(ctx context.Context, req Request) (*Plan, error) {
	inputs := make(map[string]any)
	if value := strings.TrimSpace(req.Barcode); value != "" {
		inputs["barcode"] = value
	}
	if value := strings.TrimSpace(req.ModelNumber); value != "" {
		inputs["model_number"] = value
	}
	if value := strings.TrimSpace(req.ProductName); value != "" {
		inputs["product_name"] = value
	}
	if value := strings.TrimSpace(req.LotNumber); value != "" {
		inputs["lot_number"] = value
	}
	if len(inputs) == 0 {
		return nil, services.Wrap(services.ErrStepExecution, "planner", "build plan",
			"request carries no identifier a lookup step can use", nil)
	}

	return &Plan{Steps: []Step{{
		ID:         "lookup",
		Capability: CapabilityRecallLookup,
		Inputs:     inputs,
	}}}, nil
}
