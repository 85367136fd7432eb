package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/survey-cli/internal/explain"
	"github.com/sells-group/survey-cli/internal/oracle"
	"github.com/sells-group/survey-cli/internal/resilience"
	"github.com/sells-group/survey-cli/internal/resolver"
	"github.com/sells-group/survey-cli/internal/store"
	"github.com/sells-group/survey-cli/internal/workbook"
	anthropicpkg "github.com/sells-group/survey-cli/pkg/anthropic"
)

// breakerReset is how long the LLM circuit stays open after tripping.
const breakerReset = 30 * time.Second

// surveyEnv holds the initialized collaborators needed by the serve and
// take commands.
type surveyEnv struct {
	Store     store.Store
	Oracle    oracle.Oracle
	Resolver  *resolver.Resolver
	Explainer *explain.Explainer
	Workbook  *workbook.Writer
	redis     *redis.Client
}

// Close releases resources held by the environment.
func (e *surveyEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
}

// initSurvey validates config for mode and wires the store, language model,
// resolver, explainer and workbook writer. Callers should defer env.Close().
func initSurvey(ctx context.Context, mode string) (*surveyEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	o, err := initOracle()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	cache, rdb, err := initExplainCache(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &surveyEnv{
		Store:     st,
		Oracle:    o,
		Resolver:  resolver.New(oracle.Safe(o, 0), resolver.WithThreshold(cfg.Survey.MatchThreshold)),
		Explainer: explain.New(o, cache),
		Workbook:  workbook.NewWriter(cfg.Survey.UploadDir),
		redis:     rdb,
	}, nil
}

// initOracle builds the configured provider behind rate limiting, retries,
// a circuit breaker and the per-call timeout.
func initOracle() (oracle.Oracle, error) {
	var base oracle.Oracle
	switch cfg.LLM.Provider {
	case "ollama":
		ol, err := oracle.NewOllama(cfg.LLM.BaseURL, oracle.WithOllamaModel(cfg.LLM.Model))
		if err != nil {
			return nil, err
		}
		base = ol
	case "anthropic":
		opts := []anthropicpkg.Option{}
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		client := anthropicpkg.NewClient(cfg.Anthropic.Key, opts...)
		base = oracle.NewAnthropic(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	default:
		return nil, eris.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}

	var limiter *rate.Limiter
	if cfg.LLM.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.LLM.RequestsPerSecond), 1)
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.LLM.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.LLM.MaxAttempts
	}

	var breaker *resilience.CircuitBreaker
	if cfg.LLM.BreakerThreshold > 0 {
		breaker = resilience.NewCircuitBreaker(cfg.LLM.Provider, cfg.LLM.BreakerThreshold, breakerReset)
	}

	zap.L().Info("language model configured",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", modelName()),
	)
	return oracle.Timeout(oracle.Guard(base, cfg.LLM.Provider, limiter, retry, breaker), cfg.LLM.Timeout()), nil
}

func modelName() string {
	if cfg.LLM.Provider == "anthropic" {
		return cfg.Anthropic.Model
	}
	return cfg.LLM.Model
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initExplainCache returns a Redis-backed cache when cache.redis_url is set,
// else an in-memory one.
func initExplainCache(ctx context.Context) (explain.Cache, *redis.Client, error) {
	if cfg.Cache.RedisURL == "" {
		return explain.NewMemoryCache(), nil, nil
	}
	rdb, err := explain.DialRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	zap.L().Info("explanation cache using redis", zap.Duration("ttl", ttl))
	return explain.NewRedisCache(rdb, explain.DefaultRedisPrefix, ttl), rdb, nil
}
