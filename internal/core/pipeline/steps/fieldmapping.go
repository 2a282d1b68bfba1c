package steps

import (
	"context"
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/mapping"
)

// FieldMapping converts raw extracted key/value pairs into the canonical
// field schema using the rules resolved in the config step. It runs over
// whichever extractor produced data and warns when required fields stay
// unmapped.
type FieldMapping struct {
	mapper *mapping.Mapper
}

func NewFieldMapping(mapper *mapping.Mapper) *FieldMapping {
	return &FieldMapping{mapper: mapper}
}

func (s *FieldMapping) ID() domain.StepID { return domain.StepFieldMapping }

func (s *FieldMapping) Applicable(pctx *domain.ProcessingContext) bool {
	return pctx.Primary != nil || pctx.Vision != nil
}

func (s *FieldMapping) Run(_ context.Context, pctx *domain.ProcessingContext) (any, error) {
	if pctx.Config == nil || len(pctx.Config.Rules) == 0 {
		return nil, domain.WrapError(domain.ErrConfigurationError, "field mapping",
			fmt.Errorf("no mapping rules resolved"))
	}

	out := s.mapper.Map(mapping.Input{
		Text:         pctx.ExtractedText(),
		SourceFields: s.sourceFields(pctx),
		Rules:        pctx.Config.Rules,
	})

	pctx.MappedFields = out.Mapped
	pctx.UnmappedFields = out.Unmapped
	pctx.MappingStats = &out.Statistics

	if missing := out.Statistics.RequiredFields - out.Statistics.RequiredMapped; missing > 0 {
		pctx.AddWarning(fmt.Sprintf("%d required field(s) unmapped", missing))
	}
	return out.Statistics, nil
}

func (s *FieldMapping) sourceFields(pctx *domain.ProcessingContext) map[string]domain.ExtractedField {
	if pctx.Primary != nil && len(pctx.Primary.Fields) > 0 {
		return pctx.Primary.Fields
	}
	if pctx.Vision != nil {
		return pctx.Vision.Fields
	}
	return nil
}
