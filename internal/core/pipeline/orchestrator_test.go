package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// newFakeSteps builds one scriptable step per canonical ID.
func newFakeSteps() map[domain.StepID]*fakeStep {
	steps := make(map[domain.StepID]*fakeStep, len(domain.StepOrder()))
	for _, id := range domain.StepOrder() {
		steps[id] = &fakeStep{id: id}
	}
	return steps
}

func stepSlice(steps map[domain.StepID]*fakeStep) []Step {
	out := make([]Step, 0, len(steps))
	for _, id := range domain.StepOrder() {
		out = append(out, steps[id])
	}
	return out
}

func quickPolicies(priorities map[domain.StepID]domain.StepPriority) map[domain.StepID]domain.StepConfig {
	policies := make(map[domain.StepID]domain.StepConfig, len(domain.StepOrder()))
	for _, id := range domain.StepOrder() {
		priority := domain.PriorityOptional
		if p, ok := priorities[id]; ok {
			priority = p
		}
		policies[id] = domain.StepConfig{
			Enabled:  true,
			Priority: priority,
			Timeout:  time.Second,
		}
	}
	return policies
}

func newTestOrchestrator(t *testing.T, steps map[domain.StepID]*fakeStep, priorities map[domain.StepID]domain.StepPriority, observer RunObserver) *Orchestrator {
	t.Helper()
	factory, err := NewFactory(stepSlice(steps), quickPolicies(priorities), nil)
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	return NewOrchestrator(factory, nil, observer, nil, 2)
}

func TestProcessFileRunsAllStepsInOrder(t *testing.T) {
	steps := newFakeSteps()
	var order []domain.StepID
	for _, id := range domain.StepOrder() {
		id := id
		steps[id].run = func(context.Context, *domain.ProcessingContext) (any, error) {
			order = append(order, id)
			return nil, nil
		}
	}
	orch := newTestOrchestrator(t, steps, nil, nil)

	result := orch.ProcessFile(context.Background(), domain.ProcessFileInput{FileID: "f1"}, domain.ProcessingFlags{})

	if result.Status != domain.PipelineCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if len(order) != len(domain.StepOrder()) {
		t.Fatalf("ran %d steps, want %d", len(order), len(domain.StepOrder()))
	}
	for i, id := range domain.StepOrder() {
		if order[i] != id {
			t.Fatalf("step %d = %s, want %s", i, order[i], id)
		}
	}
}

func TestProcessFileRequiredFailureAbortsRun(t *testing.T) {
	steps := newFakeSteps()
	steps[domain.StepConfigFetching].run = func(context.Context, *domain.ProcessingContext) (any, error) {
		return nil, fmt.Errorf("config store unreachable")
	}
	orch := newTestOrchestrator(t, steps, map[domain.StepID]domain.StepPriority{
		domain.StepConfigFetching: domain.PriorityRequired,
	}, nil)

	result := orch.ProcessFile(context.Background(), domain.ProcessFileInput{FileID: "f1"}, domain.ProcessingFlags{})

	if result.Status != domain.PipelineFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.Error == "" {
		t.Fatalf("failed result carries no error")
	}
	if steps[domain.StepPrimaryExtraction].calls.Load() != 0 {
		t.Fatalf("step after the aborting one still ran")
	}
	if steps[domain.StepRoutingDecision].calls.Load() != 0 {
		t.Fatalf("routing decision ran on an aborted run")
	}
}

func TestProcessFileOptionalFailureAddsExactlyOneWarning(t *testing.T) {
	steps := newFakeSteps()
	steps[domain.StepTermRecording].run = func(context.Context, *domain.ProcessingContext) (any, error) {
		return nil, fmt.Errorf("term store down")
	}
	orch := newTestOrchestrator(t, steps, nil, nil)

	result := orch.ProcessFile(context.Background(), domain.ProcessFileInput{FileID: "f1"}, domain.ProcessingFlags{})

	if result.Status != domain.PipelineCompleted {
		t.Fatalf("status = %s, want completed despite optional failure", result.Status)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", result.Warnings)
	}
	if steps[domain.StepRoutingDecision].calls.Load() != 1 {
		t.Fatalf("later steps did not run after optional failure")
	}
}

func TestProcessFileCancelledContextFailsRun(t *testing.T) {
	steps := newFakeSteps()
	orch := newTestOrchestrator(t, steps, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := orch.ProcessFile(ctx, domain.ProcessFileInput{FileID: "f1"}, domain.ProcessingFlags{})

	if result.Status != domain.PipelineFailed {
		t.Fatalf("status = %s, want failed for cancelled context", result.Status)
	}
	if !strings.Contains(result.Error, "run cancelled") {
		t.Fatalf("result error = %q, want cancellation surfaced", result.Error)
	}
	if steps[domain.StepFileTypeDetection].calls.Load() != 0 {
		t.Fatalf("step ran under a cancelled context")
	}
}

func TestProcessBatchPreservesInputOrder(t *testing.T) {
	steps := newFakeSteps()
	orch := newTestOrchestrator(t, steps, nil, nil)

	inputs := []domain.ProcessFileInput{
		{FileID: "f1"}, {FileID: "f2"}, {FileID: "f3"}, {FileID: "f4"}, {FileID: "f5"},
	}
	results := orch.ProcessBatch(context.Background(), inputs, domain.ProcessingFlags{})

	if len(results) != len(inputs) {
		t.Fatalf("got %d results for %d inputs", len(results), len(inputs))
	}
	for i, input := range inputs {
		if results[i] == nil || results[i].FileID != input.FileID {
			t.Fatalf("result %d = %+v, want file %s", i, results[i], input.FileID)
		}
	}
}

type countingObserver struct {
	mu        sync.Mutex
	started   int
	finished  int
	steps     int
	decisions []domain.RoutingDecision
}

func (o *countingObserver) RunStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) RunFinished(domain.PipelineStatus, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
}

func (o *countingObserver) StepFinished(domain.StepID, bool, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps++
}

func (o *countingObserver) DecisionMade(decision domain.RoutingDecision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decisions = append(o.decisions, decision)
}

func TestProcessFileNotifiesObserver(t *testing.T) {
	steps := newFakeSteps()
	steps[domain.StepRoutingDecision].run = func(_ context.Context, pctx *domain.ProcessingContext) (any, error) {
		pctx.Routing = &domain.RoutingDecisionResult{Decision: domain.DecisionQuickReview}
		return nil, nil
	}
	observer := &countingObserver{}
	orch := newTestOrchestrator(t, steps, nil, observer)

	orch.ProcessFile(context.Background(), domain.ProcessFileInput{FileID: "f1"}, domain.ProcessingFlags{})

	if observer.started != 1 || observer.finished != 1 {
		t.Fatalf("run signals = %d/%d, want 1/1", observer.started, observer.finished)
	}
	if observer.steps != len(domain.StepOrder()) {
		t.Fatalf("step signals = %d, want %d", observer.steps, len(domain.StepOrder()))
	}
	if len(observer.decisions) != 1 || observer.decisions[0] != domain.DecisionQuickReview {
		t.Fatalf("decisions = %v", observer.decisions)
	}
}

func TestNewFactoryRejectsMissingStep(t *testing.T) {
	steps := newFakeSteps()
	incomplete := make([]Step, 0, len(steps)-1)
	for _, id := range domain.StepOrder() {
		if id == domain.StepFieldMapping {
			continue
		}
		incomplete = append(incomplete, steps[id])
	}

	_, err := NewFactory(incomplete, nil, nil)
	if err == nil {
		t.Fatalf("expected error for missing step")
	}
	if !domain.IsKind(err, domain.ErrConfigurationError) {
		t.Fatalf("expected ErrConfigurationError, got %v", err)
	}
}

func TestNewFactoryRejectsDuplicateStep(t *testing.T) {
	steps := newFakeSteps()
	withDup := append(stepSlice(steps), &fakeStep{id: domain.StepSmartRouting})

	_, err := NewFactory(withDup, nil, nil)
	if err == nil {
		t.Fatalf("expected error for duplicate step")
	}
}

func TestNewFactoryRejectsPolicyForUnknownStep(t *testing.T) {
	steps := newFakeSteps()
	policies := quickPolicies(nil)
	policies["no_such_step"] = domain.StepConfig{Enabled: true}

	_, err := NewFactory(stepSlice(steps), policies, nil)
	if err == nil {
		t.Fatalf("expected error for unknown policy step")
	}
}

func TestNewFactoryOrdersHandlersCanonically(t *testing.T) {
	steps := newFakeSteps()
	factory, err := NewFactory(stepSlice(steps), nil, nil)
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}

	handlers := factory.Handlers()
	if len(handlers) != len(domain.StepOrder()) {
		t.Fatalf("handler count = %d, want %d", len(handlers), len(domain.StepOrder()))
	}
	for i, id := range domain.StepOrder() {
		if handlers[i].ID() != id {
			t.Fatalf("handler %d = %s, want %s", i, handlers[i].ID(), id)
		}
	}
}
