package research

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jonwraymond/codescout/cache"
	"github.com/jonwraymond/codescout/content"
	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/health"
	"github.com/jonwraymond/codescout/observe"
)

// Config configures an Orchestrator.
type Config struct {
	// GitHub configures the API client. Logger and Metrics default to the
	// orchestrator's.
	GitHub githubapi.Config

	// Cache is the response cache policy.
	// Default: cache.DefaultPolicy()
	Cache *cache.Policy

	// Keys configures key generation. OnCollision defaults to a warning log.
	Keys cache.KeyerConfig

	// Content configures fragment processing.
	// Default: content.DefaultConfig()
	Content *content.Config

	// Health tunes the checks behind Health.
	Health HealthConfig

	// Observer wraps each operation in a span, a metric and a log line.
	// Default: observe.NewMiddleware(nil, nil, Logger)
	Observer *observe.Middleware

	// Logger receives warnings from every component.
	// Default: the Observer's logger, else observe.NopLogger()
	Logger observe.Logger
}

// HealthConfig holds checker thresholds. Zero values take the checker
// defaults.
type HealthConfig struct {
	MinHitRate   float64
	LowRemaining float64
	MaxHeapBytes uint64
}

// Orchestrator runs searches, fetches and structure views through the
// response cache, the resilient API client and the content processor.
//
// Contract:
// - Concurrency: safe for concurrent use. Two concurrent misses on the same
//   key both call GitHub.
// - Errors: every failure is a *githubapi.APIError. Failures are never cached.
// - Ownership: the orchestrator owns its cache, key generator and client
//   pool; Close stops their background work.
type Orchestrator struct {
	client    *githubapi.Client
	cache     *cache.MemoryCache
	keys      *cache.KeyGenerator
	cached    *cache.Middleware
	policy    cache.Policy
	processor *content.Processor
	obs       *observe.Middleware
	logger    observe.Logger
	metrics   observe.Metrics
	health    *health.Aggregator

	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates an Orchestrator and starts the cache sweeper and the prefix
// registry trimmer.
func New(config Config) (*Orchestrator, error) {
	obs := config.Observer
	logger := config.Logger
	if logger == nil {
		if obs != nil {
			logger = obs.Logger()
		} else {
			logger = observe.NopLogger()
		}
	}
	if obs == nil {
		obs = observe.NewMiddleware(nil, nil, logger)
	}

	policy := cache.DefaultPolicy()
	if config.Cache != nil {
		policy = *config.Cache
	}
	contentConfig := content.DefaultConfig()
	if config.Content != nil {
		contentConfig = *config.Content
	}
	if contentConfig.Logger == nil {
		contentConfig.Logger = logger
	}

	if config.GitHub.Logger == nil {
		config.GitHub.Logger = logger
	}
	if config.GitHub.Metrics == nil {
		config.GitHub.Metrics = obs.Metrics()
	}
	client, err := githubapi.New(config.GitHub)
	if err != nil {
		return nil, err
	}

	if config.Keys.OnCollision == nil {
		config.Keys.OnCollision = func(r cache.CollisionRecord) {
			logger.Warn(context.Background(), "cache key collision",
				observe.Field{Key: "key", Value: r.CacheKey},
				observe.Field{Key: "observations", Value: len(r.CanonicalParams)},
			)
		}
	}

	store := cache.NewMemoryCache(policy)
	keys := cache.NewKeyGenerator(config.Keys)

	o := &Orchestrator{
		client:    client,
		cache:     store,
		keys:      keys,
		cached:    cache.NewMiddleware(store, keys, policy),
		policy:    policy,
		processor: content.NewProcessor(contentConfig),
		obs:       obs,
		logger:    logger,
		metrics:   obs.Metrics(),
	}
	o.health = o.newHealth(config.Health)

	store.Start()
	keys.Start()
	return o, nil
}

// Close stops background work. Calls made afterwards fail with ErrClosed.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		o.cache.Close()
		o.keys.Close()
	})
	return nil
}

// FlushAll drops every cached response.
func (o *Orchestrator) FlushAll() {
	o.cache.FlushAll()
	o.logger.Info(context.Background(), "response cache flushed")
}

// FlushPrefix drops the cached responses of one operation prefix, such as
// cache.PrefixFileContent, and returns how many were removed.
func (o *Orchestrator) FlushPrefix(prefix string) (int, error) {
	if strings.TrimSpace(prefix) == "" || strings.ContainsAny(prefix, ":\n\r") {
		return 0, invalid("flush: invalid cache prefix", cache.ErrInvalidKey)
	}
	n := o.cache.DeletePrefix(context.Background(), o.keys.KeyPrefix(prefix))
	o.logger.Info(context.Background(), "response cache flushed",
		observe.Field{Key: "cache.prefix", Value: prefix},
		observe.Field{Key: "cache.removed", Value: n},
	)
	return n, nil
}

// begin tags ctx with a request id and rejects calls after Close.
func (o *Orchestrator) begin(ctx context.Context, requestID string) (context.Context, error) {
	if o.closed.Load() {
		return ctx, invalid("orchestrator closed", ErrClosed)
	}
	if observe.RequestID(ctx) != "" {
		return ctx, nil
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return observe.WithRequestID(ctx, requestID), nil
}

// cachedJSON returns the decoded response for prefix and params, calling fetch
// and caching its JSON on a miss.
func cachedJSON[T any](ctx context.Context, o *Orchestrator, prefix string, params any, fetch func(context.Context) (T, error)) (T, bool, error) {
	var out T
	raw, hit, err := o.cached.Execute(ctx, prefix, params, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if o.policy.TTLFor(prefix) > 0 {
		o.metrics.RecordCacheLookup(ctx, prefix, hit)
	}
	if err != nil {
		return out, false, githubapi.Classify(err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, &githubapi.APIError{Kind: githubapi.KindUnknown, Message: "decode cached response", Err: err}
	}
	return out, hit, nil
}

func invalid(message string, err error) *githubapi.APIError {
	return &githubapi.APIError{Kind: githubapi.KindInvalidQuery, Message: message, Err: err}
}
