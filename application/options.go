package application

import (
	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/telemetry"
	"github.com/felixgeelhaar/plansearch-go/trace"
)

// Option configures the engine.
type Option func(*EngineConfig)

// WithProvider sets the generation provider.
func WithProvider(p model.Provider) Option {
	return func(c *EngineConfig) {
		c.Deps.Provider = p
	}
}

// WithExtractor sets the constraint extractor.
func WithExtractor(e ConstraintExtractor) Option {
	return func(c *EngineConfig) {
		c.Deps.Extractor = e
	}
}

// WithVerifier sets the plan verifier.
func WithVerifier(v Verifier) Option {
	return func(c *EngineConfig) {
		c.Deps.Verifier = v
	}
}

// WithPrompts sets the prompt registry.
func WithPrompts(r *prompt.Registry) Option {
	return func(c *EngineConfig) {
		c.Deps.Prompts = r
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *EngineConfig) {
		c.Deps.Metrics = m
	}
}

// WithTemperature sets the base sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *EngineConfig) {
		c.Deps.Temperature = t
	}
}

// WithSelector sets the strategy selector used by the mixture.
func WithSelector(s Selector) Option {
	return func(c *EngineConfig) {
		c.Selector = s
	}
}

// WithTraceStore journals every run's events into the store.
func WithTraceStore(s trace.Store) Option {
	return func(c *EngineConfig) {
		c.TraceStore = s
	}
}

// WithDefaultKind sets the algorithm kind used by Solve.
func WithDefaultKind(kind string) Option {
	return func(c *EngineConfig) {
		c.DefaultKind = kind
	}
}

// WithObserver subscribes an observer to every run.
func WithObserver(o event.Observer) Option {
	return func(c *EngineConfig) {
		c.Observers = append(c.Observers, o)
	}
}

// WithBestOfNConfig sets the BestOfN defaults.
func WithBestOfNConfig(cfg BestOfNConfig) Option {
	return func(c *EngineConfig) {
		c.BestOfN = cfg
	}
}

// WithTreeOfThoughtConfig sets the TreeOfThought defaults.
func WithTreeOfThoughtConfig(cfg TreeOfThoughtConfig) Option {
	return func(c *EngineConfig) {
		c.TreeOfThought = cfg
	}
}

// WithREBASEConfig sets the REBASE defaults.
func WithREBASEConfig(cfg REBASEConfig) Option {
	return func(c *EngineConfig) {
		c.REBASE = cfg
	}
}

// WithMixtureConfig sets the meta-controller defaults.
func WithMixtureConfig(cfg MixtureConfig) Option {
	return func(c *EngineConfig) {
		c.Mixture = cfg
	}
}

// NewEngineWithOptions creates an engine from functional options.
func NewEngineWithOptions(opts ...Option) (*Engine, error) {
	cfg := EngineConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngine(cfg)
}
