// Package pipeline drives the ordered sequence of processing steps that
// turns an uploaded document into confidence-scored field data and a
// routing decision.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// Step is one concrete unit of pipeline work. Run mutates the shared
// processing context as its primary effect; the returned payload is a
// summary carried on the StepResult for logging and decisioning.
type Step interface {
	ID() domain.StepID
	Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error)
	// Applicable reports step-specific gating on top of the static
	// enabled flag, e.g. "primary extraction only for the dual strategy".
	Applicable(pctx *domain.ProcessingContext) bool
}

const (
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// Handler wraps a Step with its static policy and implements the
// template method: skip check, per-attempt timeout, retry with
// exponential backoff, failure summarisation.
type Handler struct {
	step   Step
	config domain.StepConfig
	logger *slog.Logger
}

func NewHandler(step Step, config domain.StepConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		step:   step,
		config: config,
		logger: logger.With("step", string(step.ID())),
	}
}

func (h *Handler) ID() domain.StepID { return h.step.ID() }

func (h *Handler) Config() domain.StepConfig { return h.config }

func (h *Handler) ShouldExecute(pctx *domain.ProcessingContext) bool {
	if !h.config.Enabled {
		return false
	}
	if pctx.Status == domain.PipelineFailed {
		return false
	}
	return h.step.Applicable(pctx)
}

// Execute runs the step under the handler's policy and returns its
// result. A skipped step has zero duration and no side effects.
func (h *Handler) Execute(ctx context.Context, pctx *domain.ProcessingContext) domain.StepResult {
	if !h.ShouldExecute(pctx) {
		return domain.StepResult{Step: h.step.ID(), Success: true, Skipped: true}
	}

	start := time.Now()
	attempts := h.config.RetryCount + 1
	delay := retryBaseDelay

	var data any
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, lastErr = h.runOnce(ctx, pctx)
		if lastErr == nil {
			return domain.StepResult{
				Step:     h.step.ID(),
				Success:  true,
				Duration: time.Since(start),
				Data:     data,
			}
		}

		// Validation and format failures are terminal; the same input
		// fails the same way on every attempt.
		if domain.IsTerminal(lastErr) {
			break
		}

		if attempt < attempts {
			h.logger.Warn("pipeline_step_retry",
				"file_id", pctx.Input.FileID,
				"attempt", attempt,
				"max_attempts", attempts,
				"backoff_ms", delay.Milliseconds(),
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				attempt = attempts // parent context gone, stop retrying
			case <-time.After(delay):
			}
			delay *= 2
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
		}
	}

	h.logger.Error("pipeline_step_failed",
		"file_id", pctx.Input.FileID,
		"attempts", attempts,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", lastErr,
	)
	return domain.StepResult{
		Step:     h.step.ID(),
		Success:  false,
		Duration: time.Since(start),
		Error:    lastErr.Error(),
	}
}

type stepOutcome struct {
	data any
	err  error
}

// runOnce races one attempt of the step's work against its timeout. The
// timer winning is indistinguishable from any other failure to the retry
// loop. Panics inside the step surface as errors.
func (h *Handler) runOnce(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	attemptCtx := ctx
	var cancel context.CancelFunc
	if h.config.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	done := make(chan stepOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stepOutcome{err: fmt.Errorf("step panic: %v", r)}
			}
		}()
		data, err := h.step.Run(attemptCtx, pctx)
		done <- stepOutcome{data: data, err: err}
	}()

	select {
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.WrapError(domain.ErrStepTimeout, string(h.step.ID()),
			fmt.Errorf("exceeded %s", h.config.Timeout))
	case out := <-done:
		return out.data, out.err
	}
}
