package domain

import "fmt"

type RoutingDecision string

const (
	DecisionAutoApprove RoutingDecision = "auto_approve"
	DecisionQuickReview RoutingDecision = "quick_review"
	DecisionFullReview  RoutingDecision = "full_review"
)

// RoutingThresholds are the configurable score cut-offs. AutoApprove must
// be strictly above QuickReview or the bands would overlap.
type RoutingThresholds struct {
	AutoApprove float64 `yaml:"auto_approve"`
	QuickReview float64 `yaml:"quick_review"`
}

func DefaultRoutingThresholds() RoutingThresholds {
	return RoutingThresholds{AutoApprove: 90, QuickReview: 70}
}

func (t RoutingThresholds) Validate() error {
	if t.AutoApprove <= t.QuickReview {
		return fmt.Errorf("auto-approve threshold (%.1f) must exceed quick-review threshold (%.1f)",
			t.AutoApprove, t.QuickReview)
	}
	if t.AutoApprove > 100 || t.QuickReview < 0 {
		return fmt.Errorf("routing thresholds out of range: auto=%.1f quick=%.1f", t.AutoApprove, t.QuickReview)
	}
	return nil
}

// RoutingDecisionResult is derived deterministically from a confidence
// result; it is never persisted independently of its source score.
type RoutingDecisionResult struct {
	Decision         RoutingDecision   `json:"decision"`
	Score            float64           `json:"score"`
	Level            ConfidenceLevel   `json:"level"`
	Reason           string            `json:"reason"`
	Thresholds       RoutingThresholds `json:"thresholds"`
	ReviewPriority   int               `json:"review_priority"`
	EstimatedMinutes int               `json:"estimated_minutes"`
	Downgraded       bool              `json:"downgraded,omitempty"`
}
