package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

func TestLoadConfigDefaultsWhenFileAbsent(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	def := models.DefaultEngineConfig()
	if cfg.PromotionThreshold != def.PromotionThreshold {
		t.Errorf("promotion threshold = %v, want default %v", cfg.PromotionThreshold, def.PromotionThreshold)
	}
	if cfg.Chunker != def.Chunker {
		t.Errorf("chunker config = %+v, want default %+v", cfg.Chunker, def.Chunker)
	}
	if cfg.StorePath != def.StorePath {
		t.Errorf("store path = %q, want default %q", cfg.StorePath, def.StorePath)
	}
}

func TestLoadConfigReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `promotion_threshold: 0.85
auto_promote: true
chunker:
  max_chunk_lines: 200
  window_lines: 60
  window_overlap: 10
capture:
  enabled: true
  min_tool_calls: 3
`
	if err := os.WriteFile(filepath.Join(dir, ".acerc"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing .acerc: %v", err)
	}

	cfg, err := NewConfigurationManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PromotionThreshold != 0.85 {
		t.Errorf("promotion threshold = %v, want 0.85", cfg.PromotionThreshold)
	}
	if !cfg.AutoPromote {
		t.Error("auto_promote override not applied")
	}
	if cfg.Chunker.MaxChunkLines != 200 || cfg.Chunker.WindowLines != 60 {
		t.Errorf("chunker overrides not applied: %+v", cfg.Chunker)
	}
	if !cfg.Capture.Enabled || cfg.Capture.MinToolCalls != 3 {
		t.Errorf("capture overrides not applied: %+v", cfg.Capture)
	}

	// Keys the file does not set keep their defaults.
	def := models.DefaultEngineConfig()
	if cfg.Scorer != def.Scorer {
		t.Errorf("scorer weights = %+v, want defaults %+v", cfg.Scorer, def.Scorer)
	}
	if cfg.Aggregator != def.Aggregator {
		t.Errorf("aggregator weights = %+v, want defaults %+v", cfg.Aggregator, def.Aggregator)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".acerc"), []byte("promotion_threshold: [unbalanced"), 0o644); err != nil {
		t.Fatalf("writing .acerc: %v", err)
	}
	if _, err := NewConfigurationManager(dir).LoadConfig(); err == nil {
		t.Fatal("malformed YAML must fail to load")
	}
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := models.DefaultEngineConfig()
	if err := cm.ValidateConfig(&cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateConfigCollectsAllProblems(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := models.DefaultEngineConfig()
	cfg.PromotionThreshold = 1.5
	cfg.Aggregator.TestTransition = 0.9
	cfg.Chunker.WindowOverlap = cfg.Chunker.WindowLines
	cfg.StorePath = ""

	err := cm.ValidateConfig(&cfg)
	if err == nil {
		t.Fatal("invalid config must fail validation")
	}
	msg := err.Error()
	for _, want := range []string{
		"promotion_threshold",
		"aggregator weights",
		"window_overlap",
		"store_path",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("validation message missing %q:\n%s", want, msg)
		}
	}
}

func TestValidateConfigNil(t *testing.T) {
	if err := NewConfigurationManager(t.TempDir()).ValidateConfig(nil); err == nil {
		t.Fatal("nil config must fail validation")
	}
}
