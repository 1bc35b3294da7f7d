package cli

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/plansearch-go/application"
	"github.com/felixgeelhaar/plansearch-go/domain/cache"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/agents"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/config"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/model"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/prompt"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/telemetry"
	badgerstore "github.com/felixgeelhaar/plansearch-go/infrastructure/storage/badger"
	memstore "github.com/felixgeelhaar/plansearch-go/infrastructure/storage/memory"
	redisstore "github.com/felixgeelhaar/plansearch-go/infrastructure/storage/redis"
	"github.com/felixgeelhaar/plansearch-go/trace"
)

// buildResult bundles the engine and the resources that must be closed
// when the run finishes.
type buildResult struct {
	engine  *application.Engine
	cleanup []func() error
}

func (b *buildResult) close() {
	for i := len(b.cleanup) - 1; i >= 0; i-- {
		_ = b.cleanup[i]()
	}
}

// buildProvider constructs the configured model provider, wrapped with
// resilience when enabled.
func buildProvider(cfg *config.Config) (model.Provider, error) {
	mc := model.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	}

	var provider model.Provider
	switch cfg.Provider.Name {
	case "openai":
		provider = model.NewOpenAIProvider(mc)
	case "anthropic":
		provider = model.NewAnthropicProvider(mc)
	case "ollama":
		provider = model.NewOllamaProvider(mc)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}

	if cfg.Provider.Resilience.Enabled {
		rc := model.DefaultResilienceConfig()
		if cfg.Provider.Resilience.MaxAttempts > 0 {
			rc.RetryMaxAttempts = cfg.Provider.Resilience.MaxAttempts
		}
		if cfg.Provider.Resilience.MaxConcurrent > 0 {
			rc.MaxConcurrent = cfg.Provider.Resilience.MaxConcurrent
		}
		provider = model.NewResilientProvider(provider, rc)
	}
	return provider, nil
}

// buildEngine wires the full engine from configuration: provider,
// verification cache, trace store, and per-strategy defaults.
func buildEngine(ctx context.Context, cfg *config.Config, metrics telemetry.Metrics) (*buildResult, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	result := &buildResult{}
	prompts := prompt.NewRegistry()

	var verificationCache cache.Cache
	switch cfg.Storage.Cache.Backend {
	case "memory":
		verificationCache = memstore.NewCache()
	case "redis":
		rc, err := redisstore.NewCache(ctx, redisstore.Config{
			Addr:     cfg.Storage.Cache.RedisAddr,
			Password: cfg.Storage.Cache.RedisPassword,
			DB:       cfg.Storage.Cache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect verification cache: %w", err)
		}
		result.cleanup = append(result.cleanup, rc.Close)
		verificationCache = rc
	}

	var verifierOpts []agents.VerificationOption
	if verificationCache != nil {
		verifierOpts = append(verifierOpts, agents.WithCache(verificationCache, cfg.Storage.Cache.TTL))
	}

	var traceStore trace.Store
	switch cfg.Storage.TraceBackend {
	case "memory":
		traceStore = memstore.NewTraceStore()
	case "badger":
		bs, err := badgerstore.NewTraceStore(badgerstore.Config{Dir: cfg.Storage.BadgerDir})
		if err != nil {
			result.close()
			return nil, fmt.Errorf("failed to open trace store: %w", err)
		}
		result.cleanup = append(result.cleanup, bs.Close)
		traceStore = bs
	}

	engine, err := application.NewEngine(application.EngineConfig{
		Deps: application.Deps{
			Provider:    provider,
			Verifier:    agents.NewVerificationAgent(provider, prompts, verifierOpts...),
			Prompts:     prompts,
			Metrics:     metrics,
			Temperature: cfg.Provider.Temperature,
		},
		TraceStore:  traceStore,
		DefaultKind: cfg.Algorithms.Default,
		BestOfN: application.BestOfNConfig{
			NumPlans:      cfg.Algorithms.BestOfN.NumPlans,
			Sampling:      application.SamplingStrategy(cfg.Algorithms.BestOfN.Sampling),
			Parallel:      cfg.Algorithms.BestOfN.Parallel,
			MinSimilarity: cfg.Algorithms.BestOfN.SimilarityThreshold,
			MaxRetries:    cfg.Algorithms.BestOfN.MaxRetries,
		},
		TreeOfThought: application.TreeOfThoughtConfig{
			BranchFactor: cfg.Algorithms.TreeOfThought.BranchFactor,
			BeamWidth:    cfg.Algorithms.TreeOfThought.BeamWidth,
			MaxDepth:     cfg.Algorithms.TreeOfThought.MaxDepth,
		},
		REBASE: application.REBASEConfig{
			MaxIterations:        cfg.Algorithms.REBASE.MaxIterations,
			ImprovementThreshold: cfg.Algorithms.REBASE.ImprovementThreshold,
		},
		Mixture: application.MixtureConfig{
			MaxSwitches:       cfg.Algorithms.Mixture.MaxSwitches,
			GoodEnoughScore:   cfg.Algorithms.Mixture.GoodEnoughScore,
			ExplorationWeight: cfg.Algorithms.Mixture.ExplorationWeight,
		},
	})
	if err != nil {
		result.close()
		return nil, err
	}

	result.engine = engine
	return result, nil
}
