package domain

import (
	"fmt"
	"math"
)

type ConfidenceDimension string

const (
	DimExtractionQuality  ConfidenceDimension = "extraction_quality"
	DimIssuerAccuracy     ConfidenceDimension = "issuer_accuracy"
	DimFormatMatch        ConfidenceDimension = "format_match"
	DimConfigSpecificity  ConfidenceDimension = "config_specificity"
	DimHistoricalAccuracy ConfidenceDimension = "historical_accuracy"
	DimFieldCompleteness  ConfidenceDimension = "field_completeness"
	DimTermMatchRate      ConfidenceDimension = "term_match_rate"
)

// ConfidenceWeights holds the per-dimension weights of the scoring model.
// Product-tuned defaults; they must sum to 1.0 within tolerance.
type ConfidenceWeights struct {
	ExtractionQuality  float64 `yaml:"extraction_quality"`
	IssuerAccuracy     float64 `yaml:"issuer_accuracy"`
	FormatMatch        float64 `yaml:"format_match"`
	ConfigSpecificity  float64 `yaml:"config_specificity"`
	HistoricalAccuracy float64 `yaml:"historical_accuracy"`
	FieldCompleteness  float64 `yaml:"field_completeness"`
	TermMatchRate      float64 `yaml:"term_match_rate"`
}

func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		ExtractionQuality:  0.25,
		IssuerAccuracy:     0.15,
		FormatMatch:        0.15,
		ConfigSpecificity:  0.10,
		HistoricalAccuracy: 0.15,
		FieldCompleteness:  0.10,
		TermMatchRate:      0.10,
	}
}

const weightSumTolerance = 0.001

func (w ConfidenceWeights) Validate() error {
	sum := w.ExtractionQuality + w.IssuerAccuracy + w.FormatMatch +
		w.ConfigSpecificity + w.HistoricalAccuracy + w.FieldCompleteness + w.TermMatchRate
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("confidence weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

func (w ConfidenceWeights) For(dim ConfidenceDimension) float64 {
	switch dim {
	case DimExtractionQuality:
		return w.ExtractionQuality
	case DimIssuerAccuracy:
		return w.IssuerAccuracy
	case DimFormatMatch:
		return w.FormatMatch
	case DimConfigSpecificity:
		return w.ConfigSpecificity
	case DimHistoricalAccuracy:
		return w.HistoricalAccuracy
	case DimFieldCompleteness:
		return w.FieldCompleteness
	case DimTermMatchRate:
		return w.TermMatchRate
	default:
		return 0
	}
}

type ConfidenceLevel string

const (
	LevelVeryLow  ConfidenceLevel = "very_low"
	LevelLow      ConfidenceLevel = "low"
	LevelMedium   ConfidenceLevel = "medium"
	LevelHigh     ConfidenceLevel = "high"
	LevelVeryHigh ConfidenceLevel = "very_high"
)

// LevelForScore buckets a clamped overall score into exactly one of the
// five ordered levels.
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score < 20:
		return LevelVeryLow
	case score < 40:
		return LevelLow
	case score < 60:
		return LevelMedium
	case score < 80:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// DimensionScore is one independently scored input to the weighted model.
type DimensionScore struct {
	Dimension     ConfidenceDimension `json:"dimension"`
	RawScore      float64             `json:"raw_score"`
	Weight        float64             `json:"weight"`
	WeightedScore float64             `json:"weighted_score"`
	Source        string              `json:"source,omitempty"`
	Detail        string              `json:"detail,omitempty"`
}

type ConfidenceCalculationResult struct {
	OverallScore float64          `json:"overall_score"`
	Level        ConfidenceLevel  `json:"level"`
	Dimensions   []DimensionScore `json:"dimensions"`
	SourceBonus  float64          `json:"source_bonus"`
	Warnings     []string         `json:"warnings,omitempty"`
}
