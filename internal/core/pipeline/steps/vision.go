package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// VisionExtraction performs the full vision-model extraction. It is the
// primary extractor for scans and images, and the fallback for dual-mode
// runs where the structured extractor produced nothing. The resolved
// per-layer prompt, when present, steers the model.
type VisionExtraction struct {
	extractor ports.VisionExtractor
}

func NewVisionExtraction(extractor ports.VisionExtractor) *VisionExtraction {
	return &VisionExtraction{extractor: extractor}
}

func (s *VisionExtraction) ID() domain.StepID { return domain.StepVisionExtraction }

func (s *VisionExtraction) Applicable(pctx *domain.ProcessingContext) bool {
	if pctx.ProcessingMethod == domain.MethodVisionOnly {
		return true
	}
	// Dual-mode fallback: only when vision is enabled and the primary
	// extractor yielded no usable fields.
	if !pctx.Flags.VisionEnabled {
		return false
	}
	return pctx.Primary == nil || len(pctx.Primary.Fields) == 0
}

func (s *VisionExtraction) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	prompt := ""
	if pctx.Config != nil {
		prompt = pctx.Config.Prompt
	}

	extraction, err := s.extractor.ExtractAll(ctx, pctx.Input, prompt)
	if err != nil {
		return nil, fmt.Errorf("vision extraction: %w", err)
	}

	if pctx.ProcessingMethod == domain.MethodDual {
		pctx.AddWarning("primary extraction empty, fell back to vision")
	}
	pctx.Vision = extraction
	return map[string]any{
		"field_count": len(extraction.Fields),
		"confidence":  extraction.Confidence,
	}, nil
}
