package steps

import (
	"context"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/routing"
)

// RoutingDecision closes the run: the weighted score plus accumulated
// warnings become an auto-approve / quick-review / full-review verdict.
type RoutingDecision struct {
	engine *routing.Engine
}

func NewRoutingDecision(engine *routing.Engine) *RoutingDecision {
	return &RoutingDecision{engine: engine}
}

func (s *RoutingDecision) ID() domain.StepID { return domain.StepRoutingDecision }

func (s *RoutingDecision) Applicable(*domain.ProcessingContext) bool { return true }

func (s *RoutingDecision) Run(_ context.Context, pctx *domain.ProcessingContext) (any, error) {
	result := s.engine.Decide(pctx.Confidence, pctx.Warnings)
	pctx.Routing = result
	return map[string]any{
		"decision": result.Decision,
		"score":    result.Score,
		"priority": result.ReviewPriority,
	}, nil
}
