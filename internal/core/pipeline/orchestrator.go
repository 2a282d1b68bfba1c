package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// RunObserver receives pipeline lifecycle signals for metrics. All
// methods must be non-blocking.
type RunObserver interface {
	RunStarted()
	RunFinished(status domain.PipelineStatus, duration time.Duration)
	StepFinished(step domain.StepID, success bool, duration time.Duration)
	DecisionMade(decision domain.RoutingDecision)
}

// NopObserver satisfies RunObserver when metrics are disabled.
type NopObserver struct{}

func (NopObserver) RunStarted()                                      {}
func (NopObserver) RunFinished(domain.PipelineStatus, time.Duration) {}
func (NopObserver) StepFinished(domain.StepID, bool, time.Duration)  {}
func (NopObserver) DecisionMade(domain.RoutingDecision)              {}

const defaultBatchConcurrency = 4

// Orchestrator drives one handler chain per document: sequential steps,
// REQUIRED failures abort, OPTIONAL failures degrade to warnings.
type Orchestrator struct {
	factory  *Factory
	notifier ports.ProgressNotifier
	observer RunObserver
	logger   *slog.Logger
	batchSem chan struct{}
}

func NewOrchestrator(factory *Factory, notifier ports.ProgressNotifier, observer RunObserver, logger *slog.Logger, batchConcurrency int) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if batchConcurrency <= 0 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &Orchestrator{
		factory:  factory,
		notifier: notifier,
		observer: observer,
		logger:   logger,
		batchSem: make(chan struct{}, batchConcurrency),
	}
}

// ProcessFile runs the full pipeline for one document. It never returns
// an error: every failure mode is encoded on the result so batch callers
// can treat all outcomes uniformly.
func (o *Orchestrator) ProcessFile(ctx context.Context, input domain.ProcessFileInput, flags domain.ProcessingFlags) (result *domain.ProcessResult) {
	start := time.Now()
	o.observer.RunStarted()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline_panic", "file_id", input.FileID, "panic", r)
			result = &domain.ProcessResult{
				FileID:     input.FileID,
				Status:     domain.PipelineFailed,
				Error:      fmt.Sprintf("internal error: %v", r),
				DurationMS: time.Since(start).Milliseconds(),
			}
		}
		o.observer.RunFinished(result.Status, time.Since(start))
	}()

	pctx := domain.NewProcessingContext(input, flags)
	o.logger.Info("pipeline_started",
		"file_id", input.FileID,
		"file_name", input.FileName,
		"mime_type", input.MimeType,
	)

	var cancelErr string
	for _, handler := range o.factory.Handlers() {
		if pctx.Status == domain.PipelineFailed {
			break
		}
		if err := ctx.Err(); err != nil {
			pctx.Status = domain.PipelineFailed
			cancelErr = "run cancelled: " + err.Error()
			break
		}

		pctx.CurrentStep = handler.ID()
		if flags.NotifySteps && o.notifier != nil && handler.ShouldExecute(pctx) {
			o.notifier.StepStarted(ctx, input.FileID, handler.ID())
		}

		stepResult := handler.Execute(ctx, pctx)
		pctx.AppendStepResult(stepResult)
		if !stepResult.Skipped {
			o.observer.StepFinished(stepResult.Step, stepResult.Success, stepResult.Duration)
		}
		if stepResult.Success {
			continue
		}

		if handler.Config().Priority == domain.PriorityRequired {
			pctx.Status = domain.PipelineFailed
			o.logger.Error("pipeline_aborted",
				"file_id", input.FileID,
				"step", string(handler.ID()),
				"error", stepResult.Error,
			)
		} else {
			pctx.AddWarning(fmt.Sprintf("step %s failed: %s", handler.ID(), stepResult.Error))
		}
	}

	if pctx.Status != domain.PipelineFailed {
		pctx.Status = domain.PipelineCompleted
	}
	if pctx.Routing != nil {
		o.observer.DecisionMade(pctx.Routing.Decision)
	}

	result = o.assemble(pctx, time.Since(start))
	// A cancelled run fails without a failing step; the cancellation is
	// the error.
	if result.Status == domain.PipelineFailed && result.Error == "" {
		result.Error = cancelErr
	}
	o.logger.Info("pipeline_finished",
		"file_id", input.FileID,
		"status", string(result.Status),
		"warnings", len(result.Warnings),
		"duration_ms", result.DurationMS,
	)
	return result
}

// ProcessBatch fans the inputs out over a bounded worker set. Result
// order matches input order.
func (o *Orchestrator) ProcessBatch(ctx context.Context, inputs []domain.ProcessFileInput, flags domain.ProcessingFlags) []*domain.ProcessResult {
	results := make([]*domain.ProcessResult, len(inputs))

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input domain.ProcessFileInput) {
			defer wg.Done()
			o.batchSem <- struct{}{}
			defer func() { <-o.batchSem }()
			results[i] = o.ProcessFile(ctx, input, flags)
		}(i, input)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) assemble(pctx *domain.ProcessingContext, elapsed time.Duration) *domain.ProcessResult {
	result := &domain.ProcessResult{
		FileID:           pctx.Input.FileID,
		Status:           pctx.Status,
		FileType:         pctx.FileType,
		ProcessingMethod: pctx.ProcessingMethod,
		ExtractedText:    pctx.ExtractedText(),
		MappedFields:     pctx.MappedFields,
		UnmappedFields:   pctx.UnmappedFields,
		Terms:            pctx.Terms,
		Confidence:       pctx.Confidence,
		Routing:          pctx.Routing,
		Steps:            pctx.StepResults,
		Warnings:         pctx.Warnings,
		DurationMS:       elapsed.Milliseconds(),
	}
	if pctx.Issuer != nil {
		result.CompanyID = pctx.Issuer.CompanyID
	}
	if pctx.Format != nil {
		result.FormatID = pctx.Format.FormatID
	}
	if pctx.Status == domain.PipelineFailed {
		for i := len(pctx.StepResults) - 1; i >= 0; i-- {
			if !pctx.StepResults[i].Success && !pctx.StepResults[i].Skipped {
				result.Error = fmt.Sprintf("step %s: %s", pctx.StepResults[i].Step, pctx.StepResults[i].Error)
				break
			}
		}
	}
	return result
}
