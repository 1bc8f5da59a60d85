package commander

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"recallhub/internal/logging"
	"recallhub/internal/services"
)

// StepExecutor runs one capability. Inputs arrive with placeholders
// already resolved.
type StepExecutor interface {
	Execute(ctx context.Context, inputs map[string]any) (StepOutput, error)
}

// StepExecutorFunc adapts a function to the StepExecutor interface.
type StepExecutorFunc func(ctx context.Context, inputs map[string]any) (StepOutput, error)

func (f StepExecutorFunc) Execute(ctx context.Context, inputs map[string]any) (StepOutput, error) {
	return f(ctx, inputs)
}

// RegistryRouter executes plans against a registry of capability
// executors. Steps whose dependencies are satisfied run concurrently;
// dependent steps wait for their predecessors' outputs.
type RegistryRouter struct {
	mu        sync.RWMutex
	executors map[string]StepExecutor
	logger    *slog.Logger
}

// NewRegistryRouter constructs an empty router.
func NewRegistryRouter(logger *slog.Logger) *RegistryRouter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RegistryRouter{
		executors: make(map[string]StepExecutor),
		logger:    logger.With(logging.String(logging.FieldComponent, "router")),
	}
}

// Register binds a capability name to its executor, replacing any
// previous binding.
func (r *RegistryRouter) Register(capability string, executor StepExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[capability] = executor
}

func (r *RegistryRouter) executor(capability string) (StepExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[capability]
	return executor, ok
}

// ExecutePlan runs the plan in dependency order. Independent steps in
// the same wave run in parallel; the first step failure cancels the rest
// and surfaces as a step execution error.
func (r *RegistryRouter) ExecutePlan(ctx context.Context, plan *Plan) (*ExecutionResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, services.Wrap(services.ErrStepExecution, "router", "validate plan", "", err)
	}
	for _, step := range plan.Steps {
		if _, ok := r.executor(step.Capability); !ok {
			return nil, services.Wrap(services.ErrStepExecution, "router", "validate plan",
				fmt.Sprintf("no executor registered for capability %q", step.Capability), nil)
		}
	}

	outputs := make(map[string]StepOutput, len(plan.Steps))
	remaining := make(map[string]Step, len(plan.Steps))
	for _, step := range plan.Steps {
		remaining[step.ID] = step
	}

	for len(remaining) > 0 {
		wave := readySteps(plan, remaining, outputs)
		if len(wave) == 0 {
			return nil, services.Wrap(services.ErrStepExecution, "router", "schedule",
				"plan has a dependency cycle", nil)
		}

		// Inputs are resolved before the wave launches and outputs are
		// merged after it drains, so step goroutines never touch the
		// shared output map.
		group, groupCtx := errgroup.WithContext(ctx)
		var mu sync.Mutex
		waveOutputs := make(map[string]StepOutput, len(wave))
		for _, step := range wave {
			step := step
			inputs, err := resolveInputs(step.Inputs, outputs)
			if err != nil {
				return nil, services.Wrap(services.ErrStepExecution, "router", "resolve step "+step.ID, "", err)
			}
			group.Go(func() error {
				executor, _ := r.executor(step.Capability)
				r.logger.Debug("executing step",
					logging.String(logging.FieldStepID, step.ID),
					logging.String(logging.FieldCapability, step.Capability))
				output, err := executor.Execute(groupCtx, inputs)
				if err != nil {
					return services.Wrap(services.ErrStepExecution, "router", "step "+step.ID, "", err)
				}
				mu.Lock()
				waveOutputs[step.ID] = output
				mu.Unlock()
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		for id, output := range waveOutputs {
			outputs[id] = output
		}
		for _, step := range wave {
			delete(remaining, step.ID)
		}
	}

	return &ExecutionResult{
		Outputs: outputs,
		Final:   outputs[plan.Steps[len(plan.Steps)-1].ID],
	}, nil
}

// readySteps returns the remaining steps whose dependencies all have
// outputs, preserving plan order.
func readySteps(plan *Plan, remaining map[string]Step, outputs map[string]StepOutput) []Step {
	var ready []Step
	for _, step := range plan.Steps {
		if _, pending := remaining[step.ID]; !pending {
			continue
		}
		satisfied := true
		for _, dep := range step.Dependencies {
			if _, done := outputs[dep]; !done {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, step)
		}
	}
	return ready
}

// resolveInputs substitutes "{step.output}" placeholders with the named
// step's output. A bare "{id.output}" yields the whole output map; a
// "{id.output.key}" form yields that key's value.
func resolveInputs(inputs map[string]any, outputs map[string]StepOutput) (map[string]any, error) {
	if len(inputs) == 0 {
		return map[string]any{}, nil
	}
	resolved := make(map[string]any, len(inputs))
	for key, value := range inputs {
		text, ok := value.(string)
		if !ok || !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
			resolved[key] = value
			continue
		}
		ref := strings.TrimSuffix(strings.TrimPrefix(text, "{"), "}")
		parts := strings.SplitN(ref, ".output", 2)
		if len(parts) != 2 {
			resolved[key] = value
			continue
		}
		output, ok := outputs[parts[0]]
		if !ok {
			return nil, fmt.Errorf("placeholder %q references unresolved step", text)
		}
		switch {
		case parts[1] == "":
			resolved[key] = map[string]any(output)
		case strings.HasPrefix(parts[1], "."):
			field := strings.TrimPrefix(parts[1], ".")
			fieldValue, ok := output[field]
			if !ok {
				return nil, fmt.Errorf("placeholder %q references missing field", text)
			}
			resolved[key] = fieldValue
		default:
			resolved[key] = value
		}
	}
	return resolved, nil
}
