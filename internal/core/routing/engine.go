// Package routing turns a confidence score into an operational decision
// with a review priority and time estimate.
package routing

import (
	"fmt"
	"strings"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

const (
	// Accumulated uncertainty vetoes a high aggregate score.
	downgradeWarningCount = 3
	// Dimension raw scores below this signal likely correction work.
	lowDimensionScore = 50.0

	maxEstimatedMinutes = 60
)

type decisionBase struct {
	priority int
	minutes  int
}

// Base priority (1 = most urgent, 5 = least) and review minutes per
// decision, before warning/low-dimension adjustments.
var bases = map[domain.RoutingDecision]decisionBase{
	domain.DecisionAutoApprove: {priority: 5, minutes: 0},
	domain.DecisionQuickReview: {priority: 3, minutes: 5},
	domain.DecisionFullReview:  {priority: 2, minutes: 15},
}

type Engine struct {
	thresholds domain.RoutingThresholds
}

func NewEngine(thresholds domain.RoutingThresholds) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, domain.WrapError(domain.ErrConfigurationError, "routing engine", err)
	}
	return &Engine{thresholds: thresholds}, nil
}

// Decide maps one confidence result onto an operational decision.
// runWarnings are the warnings accumulated over the whole pipeline run,
// not just those raised during confidence calculation.
func (e *Engine) Decide(confidence *domain.ConfidenceCalculationResult, runWarnings []string) *domain.RoutingDecisionResult {
	if confidence == nil {
		confidence = &domain.ConfidenceCalculationResult{
			OverallScore: 0,
			Level:        domain.LevelVeryLow,
		}
	}

	score := confidence.OverallScore
	warnings := len(runWarnings)
	lowDims := countLowDimensions(confidence.Dimensions)

	decision := domain.DecisionFullReview
	switch {
	case score >= e.thresholds.AutoApprove:
		decision = domain.DecisionAutoApprove
	case score >= e.thresholds.QuickReview:
		decision = domain.DecisionQuickReview
	}

	downgraded := false
	if decision == domain.DecisionAutoApprove && warnings >= downgradeWarningCount {
		decision = domain.DecisionQuickReview
		downgraded = true
	}

	base := bases[decision]
	priority := adjustPriority(base.priority, warnings, lowDims)
	minutes := adjustMinutes(base.minutes, warnings, lowDims)

	return &domain.RoutingDecisionResult{
		Decision:         decision,
		Score:            score,
		Level:            confidence.Level,
		Reason:           buildReason(decision, score, e.thresholds, warnings, lowDims, downgraded),
		Thresholds:       e.thresholds,
		ReviewPriority:   priority,
		EstimatedMinutes: minutes,
		Downgraded:       downgraded,
	}
}

func countLowDimensions(dims []domain.DimensionScore) int {
	n := 0
	for _, d := range dims {
		if d.RawScore < lowDimensionScore {
			n++
		}
	}
	return n
}

func adjustPriority(base, warnings, lowDims int) int {
	boost := 0
	if warnings >= downgradeWarningCount {
		boost += 2
	} else if warnings > 0 {
		boost++
	}
	if lowDims > 0 {
		boost++
	}
	priority := base - boost
	if priority < 1 {
		priority = 1
	}
	return priority
}

func adjustMinutes(base, warnings, lowDims int) int {
	minutes := base + 2*warnings + 3*lowDims
	if minutes > maxEstimatedMinutes {
		minutes = maxEstimatedMinutes
	}
	return minutes
}

// buildReason produces the deterministic human-readable explanation a
// reviewer sees for every decision.
func buildReason(decision domain.RoutingDecision, score float64, t domain.RoutingThresholds, warnings, lowDims int, downgraded bool) string {
	var b strings.Builder

	switch decision {
	case domain.DecisionAutoApprove:
		fmt.Fprintf(&b, "score %.1f meets auto-approve threshold %.1f", score, t.AutoApprove)
	case domain.DecisionQuickReview:
		if downgraded {
			fmt.Fprintf(&b, "score %.1f meets auto-approve threshold %.1f but %d warnings force quick review",
				score, t.AutoApprove, warnings)
		} else {
			fmt.Fprintf(&b, "score %.1f meets quick-review threshold %.1f", score, t.QuickReview)
		}
	default:
		fmt.Fprintf(&b, "score %.1f below quick-review threshold %.1f", score, t.QuickReview)
	}

	if !downgraded && warnings > 0 {
		fmt.Fprintf(&b, "; %d warnings recorded", warnings)
	}
	if lowDims > 0 {
		fmt.Fprintf(&b, "; %d dimensions scored below %.0f", lowDims, lowDimensionScore)
	}
	return b.String()
}
