package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// FormatMatching resolves the document to a known layout for the
// identified company. Without an issuer there is nothing to match
// against, so the step skips rather than fails.
type FormatMatching struct {
	resolver ports.FormatResolver
	detector ports.FileTypeDetector
}

func NewFormatMatching(resolver ports.FormatResolver, detector ports.FileTypeDetector) *FormatMatching {
	return &FormatMatching{resolver: resolver, detector: detector}
}

func (s *FormatMatching) ID() domain.StepID { return domain.StepFormatMatching }

func (s *FormatMatching) Applicable(pctx *domain.ProcessingContext) bool {
	return pctx.Issuer != nil && pctx.Issuer.Identified
}

func (s *FormatMatching) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	var classification *domain.VisionClassification
	if pctx.Vision != nil {
		classification = &pctx.Vision.Classification
	}

	text := ""
	if pctx.ProcessingMethod == domain.MethodDual {
		probed, err := s.detector.ProbeText(ctx, pctx.Input)
		if err == nil {
			text = probed
		}
	}

	match, err := s.resolver.Match(ctx, pctx.Issuer.CompanyID, classification, text)
	if err != nil {
		return nil, fmt.Errorf("match format: %w", err)
	}

	pctx.Format = match
	if !match.Matched {
		pctx.AddWarning("no known format matched for company " + pctx.Issuer.CompanyCode)
	}
	return match, nil
}
