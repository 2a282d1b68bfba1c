package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// SmartRouting picks the extraction strategy from the detected file type.
// Text-bearing digital documents take the dual strategy (cheap
// classification pass plus the structured extractor); scans and images
// take vision-only, where classification and extraction happen in one
// model call. This is the pipeline's central cost/accuracy trade-off.
type SmartRouting struct{}

func NewSmartRouting() *SmartRouting { return &SmartRouting{} }

func (s *SmartRouting) ID() domain.StepID { return domain.StepSmartRouting }

func (s *SmartRouting) Applicable(*domain.ProcessingContext) bool { return true }

func (s *SmartRouting) Run(_ context.Context, pctx *domain.ProcessingContext) (any, error) {
	switch {
	case pctx.FileType == domain.FileTypeUnknown || pctx.FileType == "":
		return nil, domain.WrapError(domain.ErrInvalidInput, "smart routing",
			fmt.Errorf("file type not detected"))
	case pctx.FileType.TextBearing():
		pctx.ProcessingMethod = domain.MethodDual
	default:
		pctx.ProcessingMethod = domain.MethodVisionOnly
	}
	return map[string]any{"processing_method": pctx.ProcessingMethod}, nil
}
