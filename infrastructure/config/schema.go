// Package config provides configuration loading and parsing for plansearch-go.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for a plan search run.
type Config struct {
	// Provider configures the language model backend.
	Provider ProviderConfig `yaml:"provider" json:"provider"`
	// Algorithms holds per-strategy defaults.
	Algorithms AlgorithmsConfig `yaml:"algorithms" json:"algorithms"`
	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	// Storage configures trace persistence and the verification cache.
	Storage StorageConfig `yaml:"storage" json:"storage"`
	// Telemetry configures metrics and tracing export.
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// ProviderConfig selects and configures the model provider.
type ProviderConfig struct {
	// Name is one of: openai, anthropic, ollama.
	Name string `yaml:"name" json:"name"`
	// Model is the provider-specific model identifier.
	Model string `yaml:"model" json:"model"`
	// APIKey authenticates hosted providers. Supports env expansion.
	APIKey string `yaml:"api_key" json:"api_key"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Timeout bounds a single generation call.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MaxTokens caps completion length. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
	// Temperature is the default sampling temperature.
	Temperature float64 `yaml:"temperature" json:"temperature"`
	// Resilience enables retry, circuit breaking and concurrency limits.
	Resilience ResilienceConfig `yaml:"resilience" json:"resilience"`
}

// ResilienceConfig tunes the resilient provider wrapper.
type ResilienceConfig struct {
	Enabled       bool `yaml:"enabled" json:"enabled"`
	MaxAttempts   int  `yaml:"max_attempts" json:"max_attempts"`
	MaxConcurrent int  `yaml:"max_concurrent" json:"max_concurrent"`
}

// AlgorithmsConfig holds per-strategy defaults.
type AlgorithmsConfig struct {
	Default       string              `yaml:"default" json:"default"`
	BestOfN       BestOfNConfig       `yaml:"best_of_n" json:"best_of_n"`
	TreeOfThought TreeOfThoughtConfig `yaml:"tree_of_thought" json:"tree_of_thought"`
	REBASE        REBASEConfig        `yaml:"rebase" json:"rebase"`
	Mixture       MixtureConfig       `yaml:"mixture" json:"mixture"`
}

// BestOfNConfig configures independent candidate sampling.
type BestOfNConfig struct {
	NumPlans int `yaml:"num_plans" json:"num_plans"`
	// Sampling is one of: basic, diverse, adaptive.
	Sampling string `yaml:"sampling" json:"sampling"`
	Parallel bool   `yaml:"parallel" json:"parallel"`
	// SimilarityThreshold rejects near-duplicate plans in diverse mode.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	MaxRetries          int     `yaml:"max_retries" json:"max_retries"`
}

// TreeOfThoughtConfig configures beam search over plan steps.
type TreeOfThoughtConfig struct {
	BranchFactor int `yaml:"branch_factor" json:"branch_factor"`
	BeamWidth    int `yaml:"beam_width" json:"beam_width"`
	MaxDepth     int `yaml:"max_depth" json:"max_depth"`
}

// REBASEConfig configures iterative refinement.
type REBASEConfig struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
	// ImprovementThreshold is the minimum score gain to keep refining.
	ImprovementThreshold float64 `yaml:"improvement_threshold" json:"improvement_threshold"`
}

// MixtureConfig configures the meta-controller.
type MixtureConfig struct {
	MaxSwitches int `yaml:"max_switches" json:"max_switches"`
	// GoodEnoughScore stops the search early when reached.
	GoodEnoughScore float64 `yaml:"good_enough_score" json:"good_enough_score"`
	// ExplorationWeight tunes the bandit's exploration bonus.
	ExplorationWeight float64 `yaml:"exploration_weight" json:"exploration_weight"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// Format is one of: console, json.
	Format string `yaml:"format" json:"format"`
}

// StorageConfig configures trace persistence and the verification cache.
type StorageConfig struct {
	// TraceBackend is one of: none, memory, badger.
	TraceBackend string `yaml:"trace_backend" json:"trace_backend"`
	// BadgerDir is the data directory for the badger trace store.
	BadgerDir string `yaml:"badger_dir" json:"badger_dir"`
	// Cache configures the verification cache.
	Cache CacheConfig `yaml:"cache" json:"cache"`
}

// CacheConfig configures the verification cache backend.
type CacheConfig struct {
	// Backend is one of: none, memory, redis.
	Backend string `yaml:"backend" json:"backend"`
	// TTL bounds entry lifetime. Zero means no expiry.
	TTL time.Duration `yaml:"ttl" json:"ttl"`
	// RedisAddr is the host:port of the redis server.
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`
}

// TelemetryConfig configures metrics and tracing export.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// DefaultConfig returns a configuration with sensible defaults for
// local use against Ollama.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:        "ollama",
			Model:       "llama3",
			Timeout:     300 * time.Second,
			Temperature: 0.7,
			Resilience: ResilienceConfig{
				Enabled:       true,
				MaxAttempts:   3,
				MaxConcurrent: 8,
			},
		},
		Algorithms: AlgorithmsConfig{
			Default: "best_of_n",
			BestOfN: BestOfNConfig{
				NumPlans:            5,
				Sampling:            "basic",
				SimilarityThreshold: 0.9,
				MaxRetries:          3,
			},
			TreeOfThought: TreeOfThoughtConfig{
				BranchFactor: 3,
				BeamWidth:    2,
				MaxDepth:     5,
			},
			REBASE: REBASEConfig{
				MaxIterations:        5,
				ImprovementThreshold: 1,
			},
			Mixture: MixtureConfig{
				MaxSwitches:       3,
				GoodEnoughScore:   80,
				ExplorationWeight: 1.0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			TraceBackend: "memory",
			Cache: CacheConfig{
				Backend: "memory",
				TTL:     time.Hour,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "plansearch",
		},
	}
}

// Validation errors.
var (
	// ErrValidationFailed indicates the configuration is invalid.
	ErrValidationFailed = errors.New("config validation failed")
)

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks the configuration for consistency. It returns a
// single error joining all violations.
func (c *Config) Validate() error {
	var problems []string

	if !oneOf(c.Provider.Name, "openai", "anthropic", "ollama") {
		problems = append(problems, fmt.Sprintf("provider.name: unknown provider %q", c.Provider.Name))
	}
	if c.Provider.Model == "" {
		problems = append(problems, "provider.model: must not be empty")
	}
	if c.Provider.Name != "ollama" && c.Provider.APIKey == "" {
		problems = append(problems, fmt.Sprintf("provider.api_key: required for %s", c.Provider.Name))
	}

	if !oneOf(c.Algorithms.Default, "best_of_n", "tree_of_thought", "rebase", "mixture") {
		problems = append(problems, fmt.Sprintf("algorithms.default: unknown algorithm %q", c.Algorithms.Default))
	}
	if c.Algorithms.BestOfN.NumPlans < 1 {
		problems = append(problems, "algorithms.best_of_n.num_plans: must be at least 1")
	}
	if !oneOf(c.Algorithms.BestOfN.Sampling, "basic", "diverse", "adaptive") {
		problems = append(problems, fmt.Sprintf("algorithms.best_of_n.sampling: unknown strategy %q", c.Algorithms.BestOfN.Sampling))
	}
	if c.Algorithms.TreeOfThought.BranchFactor < 1 {
		problems = append(problems, "algorithms.tree_of_thought.branch_factor: must be at least 1")
	}
	if c.Algorithms.TreeOfThought.BeamWidth < 1 {
		problems = append(problems, "algorithms.tree_of_thought.beam_width: must be at least 1")
	}
	if c.Algorithms.TreeOfThought.MaxDepth < 1 {
		problems = append(problems, "algorithms.tree_of_thought.max_depth: must be at least 1")
	}
	if c.Algorithms.REBASE.MaxIterations < 1 {
		problems = append(problems, "algorithms.rebase.max_iterations: must be at least 1")
	}
	if c.Algorithms.Mixture.MaxSwitches < 0 {
		problems = append(problems, "algorithms.mixture.max_switches: must not be negative")
	}

	if !oneOf(c.Logging.Level, "debug", "info", "warn", "error") {
		problems = append(problems, fmt.Sprintf("logging.level: unknown level %q", c.Logging.Level))
	}
	if !oneOf(c.Logging.Format, "console", "json") {
		problems = append(problems, fmt.Sprintf("logging.format: unknown format %q", c.Logging.Format))
	}

	if !oneOf(c.Storage.TraceBackend, "none", "memory", "badger") {
		problems = append(problems, fmt.Sprintf("storage.trace_backend: unknown backend %q", c.Storage.TraceBackend))
	}
	if c.Storage.TraceBackend == "badger" && c.Storage.BadgerDir == "" {
		problems = append(problems, "storage.badger_dir: required for badger backend")
	}
	if !oneOf(c.Storage.Cache.Backend, "none", "memory", "redis") {
		problems = append(problems, fmt.Sprintf("storage.cache.backend: unknown backend %q", c.Storage.Cache.Backend))
	}
	if c.Storage.Cache.Backend == "redis" && c.Storage.Cache.RedisAddr == "" {
		problems = append(problems, "storage.cache.redis_addr: required for redis backend")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}
	return nil
}
