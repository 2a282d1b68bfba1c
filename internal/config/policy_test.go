package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	return path
}

func TestLoadPipelinePolicyEmptyPathYieldsDefaults(t *testing.T) {
	policy, err := LoadPipelinePolicy("")
	if err != nil {
		t.Fatalf("LoadPipelinePolicy() error = %v", err)
	}
	if len(policy.StepConfigs()) != 0 {
		t.Fatalf("empty policy produced step configs")
	}
	if policy.ConfidenceWeights() != domain.DefaultConfidenceWeights() {
		t.Fatalf("empty policy should fall back to default weights")
	}
	if policy.RoutingThresholds() != domain.DefaultRoutingThresholds() {
		t.Fatalf("empty policy should fall back to default thresholds")
	}
}

func TestLoadPipelinePolicyMergesStepOverrides(t *testing.T) {
	path := writePolicyFile(t, `
steps:
  vision_extraction:
    enabled: false
  issuer_identification:
    timeout_seconds: 30
    retry_count: 2
routing_thresholds:
  auto_approve: 95
  quick_review: 75
`)

	policy, err := LoadPipelinePolicy(path)
	if err != nil {
		t.Fatalf("LoadPipelinePolicy() error = %v", err)
	}

	configs := policy.StepConfigs()
	vision := configs[domain.StepVisionExtraction]
	if vision.Enabled {
		t.Fatalf("vision step should be disabled")
	}
	issuer := configs[domain.StepIssuerIdentify]
	if issuer.Timeout != 30*time.Second {
		t.Fatalf("issuer timeout = %s, want 30s", issuer.Timeout)
	}
	if issuer.RetryCount != 2 {
		t.Fatalf("issuer retry count = %d, want 2", issuer.RetryCount)
	}
	if !issuer.Enabled {
		t.Fatalf("issuer step lost its enabled default")
	}

	thresholds := policy.RoutingThresholds()
	if thresholds.AutoApprove != 95 || thresholds.QuickReview != 75 {
		t.Fatalf("thresholds = %+v", thresholds)
	}
}

func TestLoadPipelinePolicyKeepsDefaultPriorityForTunedSteps(t *testing.T) {
	path := writePolicyFile(t, `
steps:
  config_fetching:
    timeout_seconds: 10
`)

	policy, err := LoadPipelinePolicy(path)
	if err != nil {
		t.Fatalf("LoadPipelinePolicy() error = %v", err)
	}

	// Tuning a timeout must not downgrade a structurally required step.
	config := policy.StepConfigs()[domain.StepConfigFetching]
	if config.Priority != domain.PriorityRequired {
		t.Fatalf("config_fetching priority = %s, want required", config.Priority)
	}
}

func TestLoadPipelinePolicyRejectsUnknownStep(t *testing.T) {
	path := writePolicyFile(t, `
steps:
  teleportation:
    enabled: true
`)

	if _, err := LoadPipelinePolicy(path); err == nil {
		t.Fatalf("expected error for unknown step")
	}
}

func TestLoadPipelinePolicyRejectsInvalidPriority(t *testing.T) {
	path := writePolicyFile(t, `
steps:
  term_recording:
    priority: critical
`)

	if _, err := LoadPipelinePolicy(path); err == nil {
		t.Fatalf("expected error for invalid priority")
	}
}

func TestLoadPipelinePolicyRejectsBadWeights(t *testing.T) {
	path := writePolicyFile(t, `
confidence_weights:
  extraction_quality: 0.9
  issuer_accuracy: 0.9
`)

	if _, err := LoadPipelinePolicy(path); err == nil {
		t.Fatalf("expected error for weights not summing to 1.0")
	}
}

func TestLoadPipelinePolicyRejectsOverlappingThresholds(t *testing.T) {
	path := writePolicyFile(t, `
routing_thresholds:
  auto_approve: 70
  quick_review: 90
`)

	if _, err := LoadPipelinePolicy(path); err == nil {
		t.Fatalf("expected error for overlapping thresholds")
	}
}

func TestLoadPipelinePolicyMissingFileErrors(t *testing.T) {
	if _, err := LoadPipelinePolicy(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
