package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/routing"
)

// LegacyAdapter is the pre-pipeline processing path kept for rollback:
// one extractor call, no issuer/format/config resolution, thresholds
// applied directly to the extractor's own confidence. It returns the
// same result shape as the orchestrator so callers cannot tell the
// paths apart.
type LegacyAdapter struct {
	structured ports.StructuredExtractor
	vision     ports.VisionExtractor
	engine     *routing.Engine
	logger     *slog.Logger
}

func NewLegacyAdapter(structured ports.StructuredExtractor, vision ports.VisionExtractor, engine *routing.Engine, logger *slog.Logger) *LegacyAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyAdapter{structured: structured, vision: vision, engine: engine, logger: logger}
}

func (a *LegacyAdapter) ProcessFile(ctx context.Context, input domain.ProcessFileInput, flags domain.ProcessingFlags) *domain.ProcessResult {
	start := time.Now()
	fileType := inferFileType(input.MimeType)

	result := &domain.ProcessResult{
		FileID:           input.FileID,
		FileType:         fileType,
		ProcessingMethod: domain.MethodLegacy,
	}

	extractedConfidence := -1.0
	if fileType.TextBearing() {
		extraction, err := a.structured.Extract(ctx, input)
		if err != nil {
			return a.fail(result, "structured extraction: "+err.Error(), start)
		}
		result.ExtractedText = extraction.Text
		result.MappedFields = passthroughFields(extraction.Fields)
		extractedConfidence = extraction.Confidence
	} else {
		extraction, err := a.vision.ExtractAll(ctx, input, "")
		if err != nil {
			return a.fail(result, "vision extraction: "+err.Error(), start)
		}
		result.ExtractedText = extraction.Text
		result.MappedFields = passthroughFields(extraction.Fields)
		extractedConfidence = extraction.Confidence
	}

	// The legacy path has a single signal, so the extractor confidence
	// stands in for the overall score.
	confidence := &domain.ConfidenceCalculationResult{
		OverallScore: extractedConfidence,
		Level:        domain.LevelForScore(extractedConfidence),
	}
	result.Confidence = confidence
	result.Routing = a.engine.Decide(confidence, nil)
	result.Status = domain.PipelineCompleted
	result.DurationMS = time.Since(start).Milliseconds()

	a.logger.Info("legacy_processing_finished",
		"file_id", input.FileID,
		"file_type", string(fileType),
		"score", extractedConfidence,
		"decision", string(result.Routing.Decision),
	)
	return result
}

func (a *LegacyAdapter) ProcessBatch(ctx context.Context, inputs []domain.ProcessFileInput, flags domain.ProcessingFlags) []*domain.ProcessResult {
	results := make([]*domain.ProcessResult, len(inputs))
	for i, input := range inputs {
		results[i] = a.ProcessFile(ctx, input, flags)
	}
	return results
}

func (a *LegacyAdapter) fail(result *domain.ProcessResult, msg string, start time.Time) *domain.ProcessResult {
	result.Status = domain.PipelineFailed
	result.Error = msg
	result.DurationMS = time.Since(start).Milliseconds()
	return result
}

// inferFileType maps a declared MIME type without inspecting content;
// the legacy path trusted the upload metadata.
func inferFileType(mimeType string) domain.FileType {
	switch {
	case mimeType == "application/pdf":
		return domain.FileTypePDF
	case strings.HasPrefix(mimeType, "image/"):
		return domain.FileTypeImage
	default:
		return domain.FileTypeUnknown
	}
}

// passthroughFields lifts raw extractor fields into the mapped-field
// shape without rules; legacy consumers read them by provider name.
func passthroughFields(fields map[string]domain.ExtractedField) map[string]domain.FieldMappingResult {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]domain.FieldMappingResult, len(fields))
	for name, field := range fields {
		out[name] = domain.FieldMappingResult{
			Value:      field.Value,
			RawValue:   field.Value,
			Confidence: field.Confidence,
			Source:     domain.SourceDefault,
			Method:     domain.MethodSourceField,
			Validated:  true,
		}
	}
	return out
}
