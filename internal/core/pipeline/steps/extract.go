package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// PrimaryExtraction runs the structured extractor on text-bearing
// documents. Only the dual strategy uses it; vision-only runs skip
// straight to the vision step.
type PrimaryExtraction struct {
	extractor ports.StructuredExtractor
}

func NewPrimaryExtraction(extractor ports.StructuredExtractor) *PrimaryExtraction {
	return &PrimaryExtraction{extractor: extractor}
}

func (s *PrimaryExtraction) ID() domain.StepID { return domain.StepPrimaryExtraction }

func (s *PrimaryExtraction) Applicable(pctx *domain.ProcessingContext) bool {
	return pctx.ProcessingMethod == domain.MethodDual
}

func (s *PrimaryExtraction) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	extraction, err := s.extractor.Extract(ctx, pctx.Input)
	if err != nil {
		return nil, fmt.Errorf("structured extraction: %w", err)
	}

	pctx.Primary = extraction
	return map[string]any{
		"field_count": len(extraction.Fields),
		"line_items":  len(extraction.LineItems),
		"confidence":  extraction.Confidence,
		"page_count":  extraction.PageCount,
	}, nil
}
