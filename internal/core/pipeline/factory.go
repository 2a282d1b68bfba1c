package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// Factory builds the handler chain once and hands out the same slice for
// every run. Step instances are stateless; all per-run state lives on the
// ProcessingContext.
type Factory struct {
	handlers []*Handler
	policies map[domain.StepID]domain.StepConfig
}

// NewFactory wires the given steps with their policies in canonical
// order. Every step in the canonical order must be present, and every
// policy must name a known step.
func NewFactory(steps []Step, policies map[domain.StepID]domain.StepConfig, logger *slog.Logger) (*Factory, error) {
	byID := make(map[domain.StepID]Step, len(steps))
	for _, step := range steps {
		if _, dup := byID[step.ID()]; dup {
			return nil, domain.WrapError(domain.ErrConfigurationError, "pipeline factory",
				fmt.Errorf("duplicate step %q", step.ID()))
		}
		byID[step.ID()] = step
	}
	for id := range policies {
		if _, ok := byID[id]; !ok {
			return nil, domain.WrapError(domain.ErrConfigurationError, "pipeline factory",
				fmt.Errorf("policy for unknown step %q", id))
		}
	}

	handlers := make([]*Handler, 0, len(byID))
	for _, id := range domain.StepOrder() {
		step, ok := byID[id]
		if !ok {
			return nil, domain.WrapError(domain.ErrConfigurationError, "pipeline factory",
				fmt.Errorf("missing step %q", id))
		}
		config, ok := policies[id]
		if !ok {
			config = defaultStepConfig(id)
		}
		handlers = append(handlers, NewHandler(step, config, logger))
	}

	return &Factory{handlers: handlers, policies: policies}, nil
}

func (f *Factory) Handlers() []*Handler { return f.handlers }

// defaultStepConfig applies when the policy file omits a step entirely.
func defaultStepConfig(id domain.StepID) domain.StepConfig {
	return domain.StepConfig{
		Enabled:    true,
		Priority:   domain.DefaultStepPriority(id),
		Timeout:    domain.DefaultStepTimeout,
		RetryCount: 1,
	}
}
