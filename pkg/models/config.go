package models

// ScorerWeights holds the confidence scorer's component weights. The four
// weights must sum to 1.0; they are configurable defaults, not constants the
// engine insists on.
type ScorerWeights struct {
	Verification   float64 `yaml:"verification" mapstructure:"verification"`
	ChangeBreadth  float64 `yaml:"change_breadth" mapstructure:"change_breadth"`
	ResponseLength float64 `yaml:"response_length" mapstructure:"response_length"`
	Iteration      float64 `yaml:"iteration" mapstructure:"iteration"`
}

// AggregatorWeights holds the per-kind coefficients the validation-evidence
// aggregator applies. The three coefficients must sum to 1.0.
type AggregatorWeights struct {
	TestTransition float64 `yaml:"test_transition" mapstructure:"test_transition"`
	RuntimeError   float64 `yaml:"runtime_error" mapstructure:"runtime_error"`
	CodeQuality    float64 `yaml:"code_quality" mapstructure:"code_quality"`
}

// ChunkerConfig bounds the semantic chunker's output.
type ChunkerConfig struct {
	MaxChunkLines int `yaml:"max_chunk_lines" mapstructure:"max_chunk_lines"`
	WindowLines   int `yaml:"window_lines" mapstructure:"window_lines"`
	WindowOverlap int `yaml:"window_overlap" mapstructure:"window_overlap"`
}

// DiffConfig bounds the diff extractor's output.
type DiffConfig struct {
	ContextLines int `yaml:"context_lines" mapstructure:"context_lines"`
}

// CaptureConfig controls the hook-driven capture surface.
type CaptureConfig struct {
	Enabled      bool `yaml:"enabled" mapstructure:"enabled"`
	MinToolCalls int  `yaml:"min_tool_calls" mapstructure:"min_tool_calls"`
}

// EngineConfig holds engine settings read from .acerc via Viper.
type EngineConfig struct {
	Scorer             ScorerWeights     `yaml:"scorer" mapstructure:"scorer"`
	Aggregator         AggregatorWeights `yaml:"aggregator" mapstructure:"aggregator"`
	PromotionThreshold float64           `yaml:"promotion_threshold" mapstructure:"promotion_threshold"`
	AutoPromote        bool              `yaml:"auto_promote" mapstructure:"auto_promote"`
	Chunker            ChunkerConfig     `yaml:"chunker" mapstructure:"chunker"`
	Diff               DiffConfig        `yaml:"diff" mapstructure:"diff"`
	StorePath          string            `yaml:"store_path" mapstructure:"store_path"`
	RepoPath           string            `yaml:"repo_path" mapstructure:"repo_path"`
	Capture            CaptureConfig     `yaml:"capture" mapstructure:"capture"`
}

// DefaultEngineConfig returns sensible defaults for the engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Scorer: ScorerWeights{
			Verification:   0.40,
			ChangeBreadth:  0.20,
			ResponseLength: 0.15,
			Iteration:      0.25,
		},
		Aggregator: AggregatorWeights{
			TestTransition: 0.5,
			RuntimeError:   0.3,
			CodeQuality:    0.2,
		},
		PromotionThreshold: 0.7,
		AutoPromote:        false,
		Chunker: ChunkerConfig{
			MaxChunkLines: 120,
			WindowLines:   40,
			WindowOverlap: 5,
		},
		Diff: DiffConfig{
			ContextLines: 3,
		},
		StorePath: ".ace/context.db",
		Capture: CaptureConfig{
			Enabled:      true,
			MinToolCalls: 1,
		},
	}
}
