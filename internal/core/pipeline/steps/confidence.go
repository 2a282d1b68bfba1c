package steps

import (
	"context"
	"log/slog"
	"sort"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/confidence"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/ports"
)

// ConfidenceCalculation gathers every upstream signal plus historical
// accuracy statistics and produces the weighted overall score. REQUIRED:
// routing cannot happen without a score.
type ConfidenceCalculation struct {
	calculator *confidence.Calculator
	stats      ports.AccuracyStats
	logger     *slog.Logger
}

func NewConfidenceCalculation(calculator *confidence.Calculator, stats ports.AccuracyStats, logger *slog.Logger) *ConfidenceCalculation {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfidenceCalculation{calculator: calculator, stats: stats, logger: logger}
}

func (s *ConfidenceCalculation) ID() domain.StepID { return domain.StepConfidenceCalc }

func (s *ConfidenceCalculation) Applicable(*domain.ProcessingContext) bool { return true }

func (s *ConfidenceCalculation) Run(ctx context.Context, pctx *domain.ProcessingContext) (any, error) {
	in := confidence.Inputs{
		ExtractionConfidence: pctx.ExtractionConfidence(),
		ExtractionSource:     string(pctx.ProcessingMethod),
		Issuer:               pctx.Issuer,
		Format:               pctx.Format,
		Historical:           s.historical(ctx, pctx),
		Mapping:              pctx.MappingStats,
		Terms:                pctx.Terms,
	}
	if pctx.Config != nil {
		in.ConfigResolved = true
		in.ConfigSource = pctx.Config.RuleSource
	}

	result := s.calculator.Calculate(in)
	for _, w := range result.Warnings {
		pctx.AddWarning(w)
	}

	pctx.Confidence = result
	return map[string]any{
		"overall_score": result.OverallScore,
		"level":         result.Level,
		"source_bonus":  result.SourceBonus,
	}, nil
}

// historical averages the per-field accuracy statistics over all mapped
// fields. The smallest per-field sample bounds the aggregate, keeping the
// minimum-sample guard conservative. Stats failures degrade to
// "unavailable" rather than failing the step.
func (s *ConfidenceCalculation) historical(ctx context.Context, pctx *domain.ProcessingContext) confidence.HistoricalAccuracy {
	if s.stats == nil || len(pctx.MappedFields) == 0 || pctx.Issuer == nil || !pctx.Issuer.Identified {
		return confidence.HistoricalAccuracy{}
	}

	names := make([]string, 0, len(pctx.MappedFields))
	for name := range pctx.MappedFields {
		names = append(names, name)
	}
	sort.Strings(names)

	var sum float64
	minSample, count := 0, 0
	for _, name := range names {
		accuracy, sampleSize, err := s.stats.FieldAccuracy(ctx, name, pctx.Issuer.CompanyID)
		if err != nil {
			s.logger.Warn("accuracy_stats_lookup_failed",
				"file_id", pctx.Input.FileID, "field", name, "error", err)
			continue
		}
		if sampleSize == 0 {
			continue
		}
		sum += accuracy
		count++
		if minSample == 0 || sampleSize < minSample {
			minSample = sampleSize
		}
	}
	if count == 0 {
		return confidence.HistoricalAccuracy{}
	}
	return confidence.HistoricalAccuracy{
		Accuracy:   sum / float64(count),
		SampleSize: minSample,
		Available:  true,
	}
}
