package commander

import (
	"context"
	"fmt"
	"strings"
)

// Step is one unit of work in a plan. Inputs may reference earlier step
// outputs with "{<step id>.output}" or "{<step id>.output.<key>}"
// placeholders, which the router resolves once the dependency finishes.
type Step struct {
	ID           string
	Capability   string
	Inputs       map[string]any
	Dependencies []string
}

// Plan is an ordered list of steps with declared data dependencies.
type Plan struct {
	Steps []Step
}

// Validate checks structural soundness: unique step IDs and dependencies
// that refer to declared steps.
func (p *Plan) Validate() error {
	if p == nil || len(p.Steps) == 0 {
		return fmt.Errorf("plan carries no steps")
	}
	seen := make(map[string]struct{}, len(p.Steps))
	for _, step := range p.Steps {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			return fmt.Errorf("plan step missing id")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate step id %q", id)
		}
		seen[id] = struct{}{}
	}
	for _, step := range p.Steps {
		for _, dep := range step.Dependencies {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("step %q depends on unknown step %q", step.ID, dep)
			}
			if dep == step.ID {
				return fmt.Errorf("step %q depends on itself", step.ID)
			}
		}
	}
	return nil
}

// Planner produces a plan for a workflow request.
type Planner interface {
	BuildPlan(ctx context.Context, req Request) (*Plan, error)
}

// StepOutput is the data one step produces.
type StepOutput map[string]any

// ExecutionResult carries per-step outputs plus the final payload, which
// is the output of the plan's last step.
type ExecutionResult struct {
	Outputs map[string]StepOutput
	Final   StepOutput
}

// Router executes a plan, resolving placeholders between steps.
type Router interface {
	ExecutePlan(ctx context.Context, plan *Plan) (*ExecutionResult, error)
}
