package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// fakeStep is a scriptable step shared by the handler and orchestrator
// tests.
type fakeStep struct {
	id         domain.StepID
	run        func(ctx context.Context, pctx *domain.ProcessingContext) (any, error)
	applicable func(pctx *domain.ProcessingContext) bool
	calls      atomic.Int32
}

func (s *fakeStep) ID() domain.StepID { return s.id }

func (s *fakeStep) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	s.calls.Add(1)
	if s.run == nil {
		return nil, nil
	}
	return s.run(ctx, pctx)
}

func (s *fakeStep) Applicable(pctx *domain.ProcessingContext) bool {
	if s.applicable == nil {
		return true
	}
	return s.applicable(pctx)
}

func newRunningContext() *domain.ProcessingContext {
	return domain.NewProcessingContext(domain.ProcessFileInput{
		FileID:   "f1",
		FileName: "invoice.pdf",
		MimeType: "application/pdf",
		Content:  []byte("%PDF-1.7"),
	}, domain.ProcessingFlags{})
}

func TestHandlerExecuteSuccessRecordsData(t *testing.T) {
	step := &fakeStep{
		id:  domain.StepFileTypeDetection,
		run: func(context.Context, *domain.ProcessingContext) (any, error) { return "payload", nil },
	}
	handler := NewHandler(step, domain.StepConfig{Enabled: true, Timeout: time.Second}, nil)

	result := handler.Execute(context.Background(), newRunningContext())

	if !result.Success || result.Skipped {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.Data != "payload" {
		t.Fatalf("data = %v, want payload", result.Data)
	}
	if step.calls.Load() != 1 {
		t.Fatalf("step ran %d times, want 1", step.calls.Load())
	}
}

func TestHandlerExecuteSkipsDisabledStep(t *testing.T) {
	step := &fakeStep{id: domain.StepVisionExtraction}
	handler := NewHandler(step, domain.StepConfig{Enabled: false}, nil)

	result := handler.Execute(context.Background(), newRunningContext())

	if !result.Skipped || !result.Success {
		t.Fatalf("disabled step result = %+v, want skipped success", result)
	}
	if step.calls.Load() != 0 {
		t.Fatalf("disabled step ran")
	}
}

func TestHandlerExecuteSkipsWhenNotApplicable(t *testing.T) {
	step := &fakeStep{
		id:         domain.StepPrimaryExtraction,
		applicable: func(*domain.ProcessingContext) bool { return false },
	}
	handler := NewHandler(step, domain.StepConfig{Enabled: true}, nil)

	result := handler.Execute(context.Background(), newRunningContext())

	if !result.Skipped {
		t.Fatalf("inapplicable step not skipped: %+v", result)
	}
}

func TestHandlerExecuteRetriesThenSucceeds(t *testing.T) {
	step := &fakeStep{id: domain.StepConfigFetching}
	step.run = func(context.Context, *domain.ProcessingContext) (any, error) {
		if step.calls.Load() == 1 {
			return nil, fmt.Errorf("transient failure")
		}
		return "ok", nil
	}
	handler := NewHandler(step, domain.StepConfig{
		Enabled:    true,
		Timeout:    time.Second,
		RetryCount: 2,
	}, nil)

	result := handler.Execute(context.Background(), newRunningContext())

	if !result.Success {
		t.Fatalf("expected eventual success, got %+v", result)
	}
	if step.calls.Load() != 2 {
		t.Fatalf("step ran %d times, want 2", step.calls.Load())
	}
}

func TestHandlerExecuteExhaustsRetries(t *testing.T) {
	step := &fakeStep{
		id:  domain.StepConfigFetching,
		run: func(context.Context, *domain.ProcessingContext) (any, error) { return nil, fmt.Errorf("hard failure") },
	}
	handler := NewHandler(step, domain.StepConfig{
		Enabled:    true,
		Timeout:    time.Second,
		RetryCount: 1,
	}, nil)

	result := handler.Execute(context.Background(), newRunningContext())

	if result.Success {
		t.Fatalf("expected failure after retries")
	}
	if step.calls.Load() != 2 {
		t.Fatalf("step ran %d times, want retry count + 1 = 2", step.calls.Load())
	}
	if !strings.Contains(result.Error, "hard failure") {
		t.Fatalf("result error = %q", result.Error)
	}
}

func TestHandlerExecuteDoesNotRetryTerminalFailure(t *testing.T) {
	step := &fakeStep{
		id: domain.StepFileTypeDetection,
		run: func(context.Context, *domain.ProcessingContext) (any, error) {
			return nil, domain.WrapError(domain.ErrUnsupportedFormat, "file type detection",
				fmt.Errorf("mime type %q not supported", "text/plain"))
		},
	}
	handler := NewHandler(step, domain.StepConfig{
		Enabled:    true,
		Timeout:    time.Second,
		RetryCount: 2,
	}, nil)

	result := handler.Execute(context.Background(), newRunningContext())

	if result.Success {
		t.Fatalf("expected failure for unsupported format")
	}
	if step.calls.Load() != 1 {
		t.Fatalf("step ran %d times, want 1 for a terminal failure", step.calls.Load())
	}
	if !strings.Contains(result.Error, domain.ErrUnsupportedFormat.Error()) {
		t.Fatalf("result error = %q", result.Error)
	}
}

func TestHandlerExecuteTimesOutSlowStep(t *testing.T) {
	step := &fakeStep{
		id: domain.StepVisionExtraction,
		// Ignores cancellation on purpose: the handler must not wait for it.
		run: func(context.Context, *domain.ProcessingContext) (any, error) {
			time.Sleep(2 * time.Second)
			return "too late", nil
		},
	}
	handler := NewHandler(step, domain.StepConfig{
		Enabled: true,
		Timeout: 20 * time.Millisecond,
	}, nil)

	start := time.Now()
	result := handler.Execute(context.Background(), newRunningContext())

	if result.Success {
		t.Fatalf("expected timeout failure")
	}
	if !strings.Contains(result.Error, domain.ErrStepTimeout.Error()) {
		t.Fatalf("error = %q, want step timeout", result.Error)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("handler waited for the slow step instead of timing out")
	}
}

func TestHandlerExecuteContainsPanic(t *testing.T) {
	step := &fakeStep{
		id:  domain.StepFieldMapping,
		run: func(context.Context, *domain.ProcessingContext) (any, error) { panic("nil map write") },
	}
	handler := NewHandler(step, domain.StepConfig{Enabled: true, Timeout: time.Second}, nil)

	result := handler.Execute(context.Background(), newRunningContext())

	if result.Success {
		t.Fatalf("panicking step reported success")
	}
	if !strings.Contains(result.Error, "step panic") {
		t.Fatalf("error = %q, want panic marker", result.Error)
	}
}

func TestHandlerShouldExecuteFalseAfterPipelineFailure(t *testing.T) {
	step := &fakeStep{id: domain.StepRoutingDecision}
	handler := NewHandler(step, domain.StepConfig{Enabled: true}, nil)

	pctx := newRunningContext()
	pctx.Status = domain.PipelineFailed

	if handler.ShouldExecute(pctx) {
		t.Fatalf("step should not execute on a failed run")
	}
}
