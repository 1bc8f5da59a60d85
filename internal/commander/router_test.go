package commander_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"recallhub/internal/commander"
	"recallhub/internal/logging"
	"recallhub/internal/services"
)

func echoExecutor(tag string) commander.StepExecutor {
	return commander.StepExecutorFunc(func(ctx context.Context, inputs map[string]any) (commander.StepOutput, error) {
		output := commander.StepOutput{"tag": tag}
		for key, value := range inputs {
			output[key] = value
		}
		return output, nil
	})
}

func TestExecutePlanResolvesPlaceholders(t *testing.T) {
	router := commander.NewRegistryRouter(logging.NewNop())
	router.Register("identify", echoExecutor("identify"))
	router.Register("lookup", echoExecutor("lookup"))

	plan := &commander.Plan{Steps: []commander.Step{
		{ID: "s1", Capability: "identify", Inputs: map[string]any{"name": "swing"}},
		{
			ID:           "s2",
			Capability:   "lookup",
			Inputs:       map[string]any{"resolved_name": "{s1.output.name}", "upstream": "{s1.output}"},
			Dependencies: []string{"s1"},
		},
	}}

	result, err := router.ExecutePlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("ExecutePlan failed: %v", err)
	}
	if result.Final["resolved_name"] != "swing" {
		t.Fatalf("expected field placeholder resolved, got %v", result.Final["resolved_name"])
	}
	upstream, ok := result.Final["upstream"].(map[string]any)
	if !ok || upstream["tag"] != "identify" {
		t.Fatalf("expected whole-output placeholder resolved, got %v", result.Final["upstream"])
	}
	if len(result.Outputs) != 2 {
		t.Fatalf("expected outputs for both steps, got %d", len(result.Outputs))
	}
}

func TestExecutePlanRunsIndependentStepsConcurrently(t *testing.T) {
	router := commander.NewRegistryRouter(logging.NewNop())

	// Two independent steps rendezvous with each other; the plan can
	// only finish if the router runs them in the same wave.
	var wg sync.WaitGroup
	wg.Add(2)
	rendezvous := commander.StepExecutorFunc(func(ctx context.Context, inputs map[string]any) (commander.StepOutput, error) {
		wg.Done()
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return commander.StepOutput{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	router.Register("side", rendezvous)
	router.Register("merge", echoExecutor("merge"))

	plan := &commander.Plan{Steps: []commander.Step{
		{ID: "a", Capability: "side"},
		{ID: "b", Capability: "side"},
		{ID: "final", Capability: "merge", Dependencies: []string{"a", "b"}},
	}}

	if _, err := router.ExecutePlan(context.Background(), plan); err != nil {
		t.Fatalf("ExecutePlan failed: %v", err)
	}
}

func TestExecutePlanWideFanOutResolvesEveryPlaceholder(t *testing.T) {
	router := commander.NewRegistryRouter(logging.NewNop())
	router.Register("seed", commander.StepExecutorFunc(func(ctx context.Context, inputs map[string]any) (commander.StepOutput, error) {
		return commander.StepOutput{"value": "v"}, nil
	}))
	router.Register("consume", echoExecutor("consume"))

	// One seed step fanned out to a wide wave of dependents, each
	// resolving a placeholder against the seed's output while its
	// siblings finish concurrently.
	steps := []commander.Step{{ID: "seed", Capability: "seed"}}
	for i := 0; i < 64; i++ {
		steps = append(steps, commander.Step{
			ID:           fmt.Sprintf("c%d", i),
			Capability:   "consume",
			Inputs:       map[string]any{"seeded": "{seed.output.value}"},
			Dependencies: []string{"seed"},
		})
	}

	result, err := router.ExecutePlan(context.Background(), &commander.Plan{Steps: steps})
	if err != nil {
		t.Fatalf("ExecutePlan failed: %v", err)
	}
	if len(result.Outputs) != 65 {
		t.Fatalf("expected outputs for every step, got %d", len(result.Outputs))
	}
	for i := 0; i < 64; i++ {
		output := result.Outputs[fmt.Sprintf("c%d", i)]
		if output["seeded"] != "v" {
			t.Fatalf("step c%d missed the seed value: %v", i, output)
		}
	}
}

func TestExecutePlanFailsOnUnknownCapability(t *testing.T) {
	router := commander.NewRegistryRouter(logging.NewNop())
	plan := &commander.Plan{Steps: []commander.Step{{ID: "s1", Capability: "missing"}}}

	if _, err := router.ExecutePlan(context.Background(), plan); !errors.Is(err, services.ErrStepExecution) {
		t.Fatalf("expected step execution error, got %v", err)
	}
}

func TestExecutePlanSurfacesStepFailure(t *testing.T) {
	router := commander.NewRegistryRouter(logging.NewNop())
	router.Register("boom", commander.StepExecutorFunc(func(ctx context.Context, inputs map[string]any) (commander.StepOutput, error) {
		return nil, errors.New("backend unreachable")
	}))

	plan := &commander.Plan{Steps: []commander.Step{{ID: "s1", Capability: "boom"}}}
	if _, err := router.ExecutePlan(context.Background(), plan); !errors.Is(err, services.ErrStepExecution) {
		t.Fatalf("expected step execution error, got %v", err)
	}
}

func TestExecutePlanRejectsCycles(t *testing.T) {
	router := commander.NewRegistryRouter(logging.NewNop())
	router.Register("noop", echoExecutor("noop"))

	plan := &commander.Plan{Steps: []commander.Step{
		{ID: "s1", Capability: "noop", Dependencies: []string{"s2"}},
		{ID: "s2", Capability: "noop", Dependencies: []string{"s1"}},
	}}

	if _, err := router.ExecutePlan(context.Background(), plan); !errors.Is(err, services.ErrStepExecution) {
		t.Fatalf("expected cycle rejection, got %v", err)
	}
}

func TestPlanValidateRejectsUnknownDependency(t *testing.T) {
	plan := &commander.Plan{Steps: []commander.Step{
		{ID: "s1", Capability: "noop", Dependencies: []string{"ghost"}},
	}}
	if err := plan.Validate(); err == nil {
		t.Fatal("expected validation error for unknown dependency")
	}
}
