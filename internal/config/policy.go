package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

// PipelinePolicy is the YAML-tunable part of the pipeline: per-step
// execution policy, confidence weights and routing thresholds. Missing
// pieces fall back to the built-in defaults; present pieces are
// validated strictly.
type PipelinePolicy struct {
	Steps      map[domain.StepID]StepPolicy `yaml:"steps"`
	Weights    *domain.ConfidenceWeights    `yaml:"confidence_weights"`
	Thresholds *domain.RoutingThresholds    `yaml:"routing_thresholds"`
}

type StepPolicy struct {
	Enabled    *bool               `yaml:"enabled"`
	Priority   domain.StepPriority `yaml:"priority"`
	TimeoutSec int                 `yaml:"timeout_seconds"`
	RetryCount *int                `yaml:"retry_count"`
}

// LoadPipelinePolicy reads the policy file at path, or returns an empty
// policy when path is blank.
func LoadPipelinePolicy(path string) (PipelinePolicy, error) {
	var policy PipelinePolicy
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read pipeline policy: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return policy, fmt.Errorf("parse pipeline policy: %w", err)
	}
	if err := policy.validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

func (p PipelinePolicy) validate() error {
	known := make(map[domain.StepID]bool, len(domain.StepOrder()))
	for _, id := range domain.StepOrder() {
		known[id] = true
	}
	for id, step := range p.Steps {
		if !known[id] {
			return fmt.Errorf("pipeline policy: unknown step %q", id)
		}
		switch step.Priority {
		case "", domain.PriorityRequired, domain.PriorityOptional:
		default:
			return fmt.Errorf("pipeline policy: step %q has invalid priority %q", id, step.Priority)
		}
		if step.TimeoutSec < 0 {
			return fmt.Errorf("pipeline policy: step %q has negative timeout", id)
		}
		if step.RetryCount != nil && *step.RetryCount < 0 {
			return fmt.Errorf("pipeline policy: step %q has negative retry count", id)
		}
	}
	if p.Weights != nil {
		if err := p.Weights.Validate(); err != nil {
			return fmt.Errorf("pipeline policy: %w", err)
		}
	}
	if p.Thresholds != nil {
		if err := p.Thresholds.Validate(); err != nil {
			return fmt.Errorf("pipeline policy: %w", err)
		}
	}
	return nil
}

// StepConfigs merges the policy over the built-in per-step defaults.
func (p PipelinePolicy) StepConfigs() map[domain.StepID]domain.StepConfig {
	configs := make(map[domain.StepID]domain.StepConfig, len(p.Steps))
	for id, step := range p.Steps {
		config := domain.StepConfig{
			Enabled:    true,
			Priority:   domain.DefaultStepPriority(id),
			Timeout:    domain.DefaultStepTimeout,
			RetryCount: 1,
		}
		if step.Enabled != nil {
			config.Enabled = *step.Enabled
		}
		if step.Priority != "" {
			config.Priority = step.Priority
		}
		if step.TimeoutSec > 0 {
			config.Timeout = time.Duration(step.TimeoutSec) * time.Second
		}
		if step.RetryCount != nil {
			config.RetryCount = *step.RetryCount
		}
		configs[id] = config
	}
	return configs
}

// ConfidenceWeights returns the configured weights or the defaults.
func (p PipelinePolicy) ConfidenceWeights() domain.ConfidenceWeights {
	if p.Weights != nil {
		return *p.Weights
	}
	return domain.DefaultConfidenceWeights()
}

// RoutingThresholds returns the configured thresholds or the defaults.
func (p PipelinePolicy) RoutingThresholds() domain.RoutingThresholds {
	if p.Thresholds != nil {
		return *p.Thresholds
	}
	return domain.DefaultRoutingThresholds()
}
