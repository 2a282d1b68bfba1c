package pipeline

import (
	"context"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// Selector routes each call to the pipeline or the legacy path based on
// the per-call flags. The API layer fills the flags from configured
// defaults before applying request overrides, so the selector itself is
// stateless.
type Selector struct {
	pipeline ports.FileProcessor
	legacy   ports.FileProcessor
}

func NewSelector(pipeline, legacy ports.FileProcessor) *Selector {
	return &Selector{pipeline: pipeline, legacy: legacy}
}

func (s *Selector) pick(flags domain.ProcessingFlags) ports.FileProcessor {
	if flags.ForceLegacy || !flags.UsePipeline {
		return s.legacy
	}
	return s.pipeline
}

func (s *Selector) ProcessFile(ctx context.Context, input domain.ProcessFileInput, flags domain.ProcessingFlags) *domain.ProcessResult {
	return s.pick(flags).ProcessFile(ctx, input, flags)
}

func (s *Selector) ProcessBatch(ctx context.Context, inputs []domain.ProcessFileInput, flags domain.ProcessingFlags) []*domain.ProcessResult {
	return s.pick(flags).ProcessBatch(ctx, inputs, flags)
}
