// Package confidence combines heterogeneous pipeline signals into one
// weighted score so that no single signal can dominate spuriously.
package confidence

import (
	"fmt"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

const (
	// Mid-range fallback when a dimension has no data at all.
	scoreNoData = 50.0
	// Lower fallback when a sub-system ran and actively reported no result.
	scoreNoResult = 30.0
	// Fixed score when issuer identification was attempted but failed.
	scoreIssuerUnidentified = 20.0
	// Neutral score for documents with zero detected terms.
	scoreNoTerms = 70.0

	newTermPenalty    = 2.0
	newTermPenaltyCap = 20.0
)

// configSourceScores fixes the specificity dimension per winning layer.
var configSourceScores = map[domain.ConfigSource]float64{
	domain.SourceDocument: 95,
	domain.SourceCompany:  85,
	domain.SourceFormat:   75,
	domain.SourceGlobal:   65,
	domain.SourceDefault:  50,
}

// configSourceBonus is the additive, non-weighted nudge reflecting how
// specific the winning configuration layer was.
var configSourceBonus = map[domain.ConfigSource]float64{
	domain.SourceDocument: 5,
	domain.SourceCompany:  4,
	domain.SourceFormat:   3,
	domain.SourceGlobal:   1,
	domain.SourceDefault:  0,
}

// methodBonus rewards structural identification over keyword-only hits.
var methodBonus = map[domain.MatchMethod]float64{
	domain.MatchByName:    10,
	domain.MatchByFormat:  6,
	domain.MatchByLogo:    4,
	domain.MatchByKeyword: 0,
}

// HistoricalAccuracy aggregates the accuracy statistic backing the
// historical dimension. Available is false when no stats were fetched.
type HistoricalAccuracy struct {
	Accuracy   float64
	SampleSize int
	Available  bool
}

// Inputs carries everything the calculator scores. Nil pointers mean the
// corresponding sub-system never ran.
type Inputs struct {
	ExtractionConfidence float64 // -1 when nothing extracted
	ExtractionSource     string
	Issuer               *domain.IssuerIdentification
	Format               *domain.FormatMatch
	ConfigSource         domain.ConfigSource
	ConfigResolved       bool
	Historical           HistoricalAccuracy
	Mapping              *domain.MappingStatistics
	Terms                *domain.TermDetectionResult
}

type Calculator struct {
	weights       domain.ConfidenceWeights
	minSampleSize int
}

func NewCalculator(weights domain.ConfidenceWeights, minSampleSize int) (*Calculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, domain.WrapError(domain.ErrConfigurationError, "confidence calculator", err)
	}
	if minSampleSize <= 0 {
		minSampleSize = 10
	}
	return &Calculator{weights: weights, minSampleSize: minSampleSize}, nil
}

func (c *Calculator) Calculate(in Inputs) *domain.ConfidenceCalculationResult {
	result := &domain.ConfidenceCalculationResult{}

	c.add(result, domain.DimExtractionQuality, c.scoreExtraction(in), in.ExtractionSource)
	c.add(result, domain.DimIssuerAccuracy, c.scoreIssuer(in.Issuer), "issuer_identification")
	c.add(result, domain.DimFormatMatch, c.scoreFormat(in.Format), "format_matching")
	c.add(result, domain.DimConfigSpecificity, c.scoreConfigSource(in), "config_resolution")
	c.add(result, domain.DimHistoricalAccuracy, c.scoreHistorical(in.Historical, result), "accuracy_stats")
	c.add(result, domain.DimFieldCompleteness, c.scoreCompleteness(in.Mapping), "field_mapping")
	c.add(result, domain.DimTermMatchRate, c.scoreTerms(in.Terms), "term_recording")

	total := 0.0
	for _, dim := range result.Dimensions {
		total += dim.WeightedScore
	}
	if in.ConfigResolved {
		result.SourceBonus = configSourceBonus[in.ConfigSource]
	}
	result.OverallScore = clamp(total+result.SourceBonus, 0, 100)
	result.Level = domain.LevelForScore(result.OverallScore)
	return result
}

func (c *Calculator) add(result *domain.ConfidenceCalculationResult, dim domain.ConfidenceDimension, scored scoredDimension, source string) {
	weight := c.weights.For(dim)
	raw := clamp(scored.score, 0, 100)
	result.Dimensions = append(result.Dimensions, domain.DimensionScore{
		Dimension:     dim,
		RawScore:      raw,
		Weight:        weight,
		WeightedScore: raw * weight,
		Source:        source,
		Detail:        scored.detail,
	})
}

type scoredDimension struct {
	score  float64
	detail string
}

func (c *Calculator) scoreExtraction(in Inputs) scoredDimension {
	if in.ExtractionConfidence < 0 {
		return scoredDimension{scoreNoData, "no extraction data"}
	}
	return scoredDimension{
		clamp(in.ExtractionConfidence, 0, 100),
		fmt.Sprintf("extractor-reported confidence %.1f", in.ExtractionConfidence),
	}
}

func (c *Calculator) scoreIssuer(issuer *domain.IssuerIdentification) scoredDimension {
	if issuer == nil {
		return scoredDimension{scoreNoData, "identification not attempted"}
	}
	if !issuer.Identified && issuer.CompanyID == "" {
		return scoredDimension{scoreIssuerUnidentified, "attempted but unidentified"}
	}
	score := clamp(issuer.Confidence+methodBonus[issuer.Method], 0, 100)
	return scoredDimension{score, fmt.Sprintf("matched via %s (%.1f)", issuer.Method, issuer.Confidence)}
}

func (c *Calculator) scoreFormat(format *domain.FormatMatch) scoredDimension {
	if format == nil {
		return scoredDimension{scoreNoData, "format matching not attempted"}
	}
	if !format.Matched {
		return scoredDimension{scoreNoResult, "no format match found"}
	}
	return scoredDimension{format.Confidence, fmt.Sprintf("matched format %s", format.FormatID)}
}

func (c *Calculator) scoreConfigSource(in Inputs) scoredDimension {
	if !in.ConfigResolved {
		return scoredDimension{configSourceScores[domain.SourceDefault], "default configuration fallback"}
	}
	score, ok := configSourceScores[in.ConfigSource]
	if !ok {
		score = configSourceScores[domain.SourceDefault]
	}
	return scoredDimension{score, fmt.Sprintf("configuration from %s layer", in.ConfigSource)}
}

func (c *Calculator) scoreHistorical(hist HistoricalAccuracy, result *domain.ConfidenceCalculationResult) scoredDimension {
	if !hist.Available {
		return scoredDimension{scoreNoData, "no historical statistics"}
	}
	if hist.SampleSize < c.minSampleSize {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"historical accuracy sample too small (%d < %d), using default score",
			hist.SampleSize, c.minSampleSize))
		return scoredDimension{scoreNoData, "sample below minimum, default applied"}
	}
	return scoredDimension{hist.Accuracy, fmt.Sprintf("%.1f%% over %d samples", hist.Accuracy, hist.SampleSize)}
}

func (c *Calculator) scoreCompleteness(stats *domain.MappingStatistics) scoredDimension {
	if stats == nil || stats.TotalFields == 0 {
		return scoredDimension{scoreNoData, "no mapping statistics"}
	}
	allFrac := float64(stats.MappedFields) / float64(stats.TotalFields)
	requiredFrac := 1.0
	if stats.RequiredFields > 0 {
		requiredFrac = float64(stats.RequiredMapped) / float64(stats.RequiredFields)
	}
	score := (0.7*requiredFrac + 0.3*allFrac) * 100
	return scoredDimension{score, fmt.Sprintf("required %d/%d, all %d/%d",
		stats.RequiredMapped, stats.RequiredFields, stats.MappedFields, stats.TotalFields)}
}

func (c *Calculator) scoreTerms(terms *domain.TermDetectionResult) scoredDimension {
	if terms == nil || len(terms.Detected) == 0 {
		return scoredDimension{scoreNoTerms, "no terms detected"}
	}
	rate := terms.MatchRate() * 100
	penalty := newTermPenalty * float64(len(terms.NewTerms))
	if penalty > newTermPenaltyCap {
		penalty = newTermPenaltyCap
	}
	score := rate - penalty
	if score < 0 {
		score = 0
	}
	return scoredDimension{score, fmt.Sprintf("matched %d/%d, %d new",
		len(terms.Matched), len(terms.Detected), len(terms.NewTerms))}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
