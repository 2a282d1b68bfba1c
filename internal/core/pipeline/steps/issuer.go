package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// IssuerIdentification resolves the issuing company before full
// extraction runs. For digital documents it matches against the embedded
// text layer; for scans it asks the vision model for a lightweight
// classification first. OPTIONAL: failure degrades downstream confidence
// but never aborts the run.
type IssuerIdentification struct {
	detector ports.FileTypeDetector
	vision   ports.VisionExtractor
	resolver ports.IssuerResolver
}

func NewIssuerIdentification(detector ports.FileTypeDetector, vision ports.VisionExtractor, resolver ports.IssuerResolver) *IssuerIdentification {
	return &IssuerIdentification{detector: detector, vision: vision, resolver: resolver}
}

func (s *IssuerIdentification) ID() domain.StepID { return domain.StepIssuerIdentify }

func (s *IssuerIdentification) Applicable(*domain.ProcessingContext) bool { return true }

func (s *IssuerIdentification) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	text, err := s.classificationText(ctx, pctx)
	if err != nil {
		return nil, err
	}

	identification, err := s.resolver.Identify(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("identify issuer: %w", err)
	}

	pctx.Issuer = identification
	switch {
	case !identification.Identified:
		pctx.AddWarning("issuer could not be identified")
	case identification.NeedsReview:
		pctx.AddWarning(fmt.Sprintf("issuer %s matched below auto-identify confidence (%.1f)",
			identification.CompanyCode, identification.Confidence))
	}
	return identification, nil
}

// classificationText obtains the cheapest usable text for matching: the
// digital text layer when one exists, else a vision classification whose
// issuer guess doubles as matching input.
func (s *IssuerIdentification) classificationText(ctx context.Context, pctx *domain.ProcessingContext) (string, error) {
	if pctx.ProcessingMethod == domain.MethodDual {
		text, err := s.detector.ProbeText(ctx, pctx.Input)
		if err != nil {
			return "", fmt.Errorf("probe text layer: %w", err)
		}
		return text, nil
	}

	classification, err := s.vision.Classify(ctx, pctx.Input)
	if err != nil {
		return "", fmt.Errorf("vision classification: %w", err)
	}
	pctx.Vision = &domain.VisionExtraction{
		Classification: *classification,
		Confidence:     classification.Confidence,
	}
	return classification.IssuerName + " " + classification.DocumentTag, nil
}
