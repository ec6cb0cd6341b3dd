package engine

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// ConfigurationManager loads and validates the engine configuration from
// the .acerc file at the project root.
type ConfigurationManager interface {
	LoadConfig() (*models.EngineConfig, error)
	ValidateConfig(cfg *models.EngineConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .acerc resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads the
// configuration file relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// LoadConfig reads the .acerc file from the base path using Viper.
// If the file does not exist, the built-in defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.EngineConfig, error) {
	cfg := models.DefaultEngineConfig()

	v := viper.New()
	v.SetConfigName(".acerc")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("scorer.verification", cfg.Scorer.Verification)
	v.SetDefault("scorer.change_breadth", cfg.Scorer.ChangeBreadth)
	v.SetDefault("scorer.response_length", cfg.Scorer.ResponseLength)
	v.SetDefault("scorer.iteration", cfg.Scorer.Iteration)
	v.SetDefault("aggregator.test_transition", cfg.Aggregator.TestTransition)
	v.SetDefault("aggregator.runtime_error", cfg.Aggregator.RuntimeError)
	v.SetDefault("aggregator.code_quality", cfg.Aggregator.CodeQuality)
	v.SetDefault("promotion_threshold", cfg.PromotionThreshold)
	v.SetDefault("auto_promote", cfg.AutoPromote)
	v.SetDefault("chunker.max_chunk_lines", cfg.Chunker.MaxChunkLines)
	v.SetDefault("chunker.window_lines", cfg.Chunker.WindowLines)
	v.SetDefault("chunker.window_overlap", cfg.Chunker.WindowOverlap)
	v.SetDefault("diff.context_lines", cfg.Diff.ContextLines)
	v.SetDefault("store_path", cfg.StorePath)
	v.SetDefault("repo_path", cfg.RepoPath)
	v.SetDefault("capture.enabled", cfg.Capture.Enabled)
	v.SetDefault("capture.min_tool_calls", cfg.Capture.MinToolCalls)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading .acerc: %w", err)
	}

	cfg.Scorer.Verification = v.GetFloat64("scorer.verification")
	cfg.Scorer.ChangeBreadth = v.GetFloat64("scorer.change_breadth")
	cfg.Scorer.ResponseLength = v.GetFloat64("scorer.response_length")
	cfg.Scorer.Iteration = v.GetFloat64("scorer.iteration")
	cfg.Aggregator.TestTransition = v.GetFloat64("aggregator.test_transition")
	cfg.Aggregator.RuntimeError = v.GetFloat64("aggregator.runtime_error")
	cfg.Aggregator.CodeQuality = v.GetFloat64("aggregator.code_quality")
	cfg.PromotionThreshold = v.GetFloat64("promotion_threshold")
	cfg.AutoPromote = v.GetBool("auto_promote")
	cfg.Chunker.MaxChunkLines = v.GetInt("chunker.max_chunk_lines")
	cfg.Chunker.WindowLines = v.GetInt("chunker.window_lines")
	cfg.Chunker.WindowOverlap = v.GetInt("chunker.window_overlap")
	cfg.Diff.ContextLines = v.GetInt("diff.context_lines")
	cfg.StorePath = v.GetString("store_path")
	cfg.RepoPath = v.GetString("repo_path")
	cfg.Capture.Enabled = v.GetBool("capture.enabled")
	cfg.Capture.MinToolCalls = v.GetInt("capture.min_tool_calls")

	return &cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns a
// clear error message identifying each problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.EngineConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	scorerSum := cfg.Scorer.Verification + cfg.Scorer.ChangeBreadth +
		cfg.Scorer.ResponseLength + cfg.Scorer.Iteration
	if scorerSum <= 0 {
		errs = append(errs, "scorer weights must sum to a positive value")
	}
	for name, w := range map[string]float64{
		"scorer.verification":    cfg.Scorer.Verification,
		"scorer.change_breadth":  cfg.Scorer.ChangeBreadth,
		"scorer.response_length": cfg.Scorer.ResponseLength,
		"scorer.iteration":       cfg.Scorer.Iteration,
	} {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be non-negative, got %v", name, w))
		}
	}

	aggSum := cfg.Aggregator.TestTransition + cfg.Aggregator.RuntimeError + cfg.Aggregator.CodeQuality
	if aggSum < 1.0-weightTolerance || aggSum > 1.0+weightTolerance {
		errs = append(errs, fmt.Sprintf("aggregator weights must sum to 1.0, got %v", aggSum))
	}

	if cfg.PromotionThreshold < 0 || cfg.PromotionThreshold > 1 {
		errs = append(errs, fmt.Sprintf(
			"promotion_threshold %v is invalid, must be between 0 and 1",
			cfg.PromotionThreshold,
		))
	}

	if cfg.Chunker.MaxChunkLines <= 0 {
		errs = append(errs, fmt.Sprintf(
			"chunker.max_chunk_lines must be positive, got %d", cfg.Chunker.MaxChunkLines,
		))
	}
	if cfg.Chunker.WindowLines <= 0 {
		errs = append(errs, fmt.Sprintf(
			"chunker.window_lines must be positive, got %d", cfg.Chunker.WindowLines,
		))
	}
	if cfg.Chunker.WindowOverlap < 0 || cfg.Chunker.WindowOverlap >= cfg.Chunker.WindowLines {
		errs = append(errs, fmt.Sprintf(
			"chunker.window_overlap %d is invalid, must be non-negative and below window_lines",
			cfg.Chunker.WindowOverlap,
		))
	}

	if cfg.Diff.ContextLines < 0 {
		errs = append(errs, fmt.Sprintf(
			"diff.context_lines must be non-negative, got %d", cfg.Diff.ContextLines,
		))
	}

	if cfg.StorePath == "" {
		errs = append(errs, "store_path must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
