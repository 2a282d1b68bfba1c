package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("USE_PIPELINE", "")
	t.Setenv("TERM_AUTO_SAVE", "")
	t.Setenv("BATCH_CONCURRENCY", "")
	t.Setenv("MIN_SAMPLE_SIZE", "")
	t.Setenv("RATE_LIMIT_PER_SECOND", "")

	cfg := Load()
	if !cfg.UsePipeline {
		t.Fatalf("expected pipeline enabled by default")
	}
	if !cfg.TermAutoSave {
		t.Fatalf("expected term auto-save enabled by default")
	}
	if cfg.BatchConcurrency != 4 {
		t.Fatalf("expected default batch concurrency 4, got %d", cfg.BatchConcurrency)
	}
	if cfg.MinSampleSize != 10 {
		t.Fatalf("expected default min sample size 10, got %d", cfg.MinSampleSize)
	}
	if cfg.RateLimitPerSecond != 10 {
		t.Fatalf("expected default rate limit 10/s, got %.1f", cfg.RateLimitPerSecond)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("USE_PIPELINE", "false")
	t.Setenv("FORMAT_AUTO_CREATE", "true")
	t.Setenv("BATCH_CONCURRENCY", "8")
	t.Setenv("EXPORT_LIMIT", "50")
	t.Setenv("VISION_MODEL", "llava:13b")

	cfg := Load()
	if cfg.UsePipeline {
		t.Fatalf("expected pipeline override off")
	}
	if !cfg.FormatAutoCreate {
		t.Fatalf("expected format auto-create on")
	}
	if cfg.BatchConcurrency != 8 {
		t.Fatalf("expected batch concurrency 8, got %d", cfg.BatchConcurrency)
	}
	if cfg.ExportLimit != 50 {
		t.Fatalf("expected export limit 50, got %d", cfg.ExportLimit)
	}
	if cfg.VisionModel != "llava:13b" {
		t.Fatalf("expected vision model override, got %q", cfg.VisionModel)
	}
}

func TestLoadFallsBackOnUnparseableValues(t *testing.T) {
	t.Setenv("BATCH_CONCURRENCY", "not-a-number")
	t.Setenv("USE_PIPELINE", "maybe")

	cfg := Load()
	if cfg.BatchConcurrency != 4 {
		t.Fatalf("expected fallback batch concurrency 4, got %d", cfg.BatchConcurrency)
	}
	if !cfg.UsePipeline {
		t.Fatalf("expected fallback pipeline enabled")
	}
}
