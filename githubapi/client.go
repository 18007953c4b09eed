package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/codescout/observe"
	"github.com/jonwraymond/codescout/query"
	"github.com/jonwraymond/codescout/resilience"
)

// Search pagination limits enforced by GitHub.
const (
	DefaultPerPage = 30
	MaxPerPage     = 100
	maxSearchDepth = 1000
)

// Config configures a Client.
type Config struct {
	// BaseURL is the REST API root.
	// Default: https://api.github.com/
	BaseURL string `yaml:"base_url"`

	// UserAgent is sent with every request.
	// Default: codescout
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds each attempt of a call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxClients bounds the credential pool.
	// Default: 32
	MaxClients int `yaml:"max_clients"`

	// SearchRate is the client-side throttle for search calls, per second.
	// Default: 0.5 (GitHub allows 30 authenticated searches per minute)
	SearchRate float64 `yaml:"search_rate"`

	// SearchBurst is the throttle's burst size.
	// Default: 10
	SearchBurst int `yaml:"search_burst"`

	// SearchMaxWait is how long a search waits for a throttle token.
	// Default: 2s
	SearchMaxWait time.Duration `yaml:"search_max_wait"`

	// MaxConcurrent caps calls in flight across all credentials.
	// Default: 10
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxRetryDelay caps the wait before the single rate-limit retry.
	// Default: 60s
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`

	// SecondaryRetryDelay is used when a secondary limit carries no Retry-After.
	// Default: 60s
	SecondaryRetryDelay time.Duration `yaml:"secondary_retry_delay"`

	// BreakerFailures is the number of consecutive server or network
	// failures that stops calls for BreakerReset.
	// Default: 5
	BreakerFailures int `yaml:"breaker_failures"`

	// BreakerReset is how long calls stay stopped.
	// Default: 30s
	BreakerReset time.Duration `yaml:"breaker_reset"`

	// HTTPClient is the base HTTP client. Default: &http.Client{}
	HTTPClient *http.Client `yaml:"-"`

	// Logger receives rate-limit warnings. Default: observe.NopLogger()
	Logger observe.Logger `yaml:"-"`

	// Metrics receives per-request metrics. Default: observe.NoopMetrics()
	Metrics observe.Metrics `yaml:"-"`
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.SearchRate <= 0 {
		c.SearchRate = 0.5
	}
	if c.SearchBurst <= 0 {
		c.SearchBurst = 10
	}
	if c.SearchMaxWait <= 0 {
		c.SearchMaxWait = 2 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 60 * time.Second
	}
	if c.SecondaryRetryDelay <= 0 {
		c.SecondaryRetryDelay = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	if c.Metrics == nil {
		c.Metrics = observe.NoopMetrics()
	}
}

// SearchOptions are the pagination and ordering options of a search.
type SearchOptions struct {
	Sort      string `json:"sort,omitempty"`
	Order     string `json:"order,omitempty"` // asc or desc
	Page      int    `json:"page,omitempty"`
	PerPage   int    `json:"per_page,omitempty"`
	TextMatch bool   `json:"text_match,omitempty"`
}

// Normalize applies the page defaults and clamps PerPage to MaxPerPage.
func (o SearchOptions) Normalize() SearchOptions {
	if o.Page <= 0 {
		o.Page = 1
	}
	switch {
	case o.PerPage <= 0:
		o.PerPage = DefaultPerPage
	case o.PerPage > MaxPerPage:
		o.PerPage = MaxPerPage
	}
	o.Order = strings.ToLower(o.Order)
	if o.Order != "asc" && o.Order != "desc" {
		o.Order = ""
	}
	return o
}

func (o SearchOptions) github() *github.SearchOptions {
	return &github.SearchOptions{
		Sort:        o.Sort,
		Order:       o.Order,
		TextMatch:   o.TextMatch,
		ListOptions: github.ListOptions{Page: o.Page, PerPage: o.PerPage},
	}
}

// Client calls the GitHub REST API with per-credential clients, a single
// retry on rate limits, and typed results.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: every failure is an *APIError.
// - Context: each attempt is bounded by Config.Timeout and by ctx.
type Client struct {
	config  Config
	pool    *Pool
	search  *resilience.Executor
	core    *resilience.Executor
	breaker *resilience.CircuitBreaker
	logger  observe.Logger
	metrics observe.Metrics
}

// New creates a Client.
func New(config Config) (*Client, error) {
	config.applyDefaults()

	pool, err := NewPool(PoolConfig{
		MaxClients: config.MaxClients,
		BaseURL:    config.BaseURL,
		UserAgent:  config.UserAgent,
		HTTPClient: config.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("githubapi: invalid base URL: %w", err)
	}

	c := &Client{
		config:  config,
		pool:    pool,
		logger:  config.Logger,
		metrics: config.Metrics,
	}

	c.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  config.BreakerFailures,
		ResetTimeout: config.BreakerReset,
		IsFailure:    countsAgainstService,
		OnStateChange: func(from, to resilience.State) {
			c.logger.Warn(context.Background(), "github circuit state changed",
				observe.Field{Key: "from", Value: from.String()},
				observe.Field{Key: "to", Value: to.String()},
			)
		},
	})

	bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{
		MaxConcurrent: config.MaxConcurrent,
		MaxWait:       config.Timeout,
	})

	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 2,
		MaxDelay:    config.MaxRetryDelay,
		RetryIf:     func(err error) bool { return KindOf(err).RateLimit() },
		DelayFor:    c.retryDelay,
	})

	common := []resilience.ExecutorOption{
		resilience.WithBulkhead(bulkhead),
		resilience.WithCircuitBreaker(c.breaker),
		resilience.WithRetry(retry),
		resilience.WithTimeout(config.Timeout),
	}
	c.core = resilience.NewExecutor(common...)
	c.search = resilience.NewExecutor(append(common, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:        config.SearchRate,
		Burst:       config.SearchBurst,
		WaitOnLimit: true,
		MaxWait:     config.SearchMaxWait,
	})))...)

	return c, nil
}

// Pool returns the credential pool.
func (c *Client) Pool() *Pool { return c.pool }

// CircuitState reports whether calls are currently being stopped.
func (c *Client) CircuitState() resilience.State { return c.breaker.State() }

// Concurrency reports the in-flight request limit and its usage.
func (c *Client) Concurrency() resilience.BulkheadMetrics { return c.core.Bulkhead().Metrics() }

func (c *Client) retryDelay(err error) (time.Duration, bool) {
	apiErr := Classify(err)
	switch apiErr.Kind {
	case KindRateLimited:
		return apiErr.RetryAfter, true
	case KindSecondaryRateLimited:
		if apiErr.RetryAfter > 0 {
			return apiErr.RetryAfter, true
		}
		return c.config.SecondaryRetryDelay, true
	}
	return 0, false
}

// countsAgainstService limits the breaker to failures of GitHub itself.
func countsAgainstService(err error) bool {
	switch KindOf(err) {
	case KindServerUnavailable:
		return true
	case KindNetwork:
		return !errors.Is(err, context.Canceled)
	}
	return false
}

// call runs fn through exec with the client for token. endpoint names the
// call in logs and metrics.
func call[T any](ctx context.Context, c *Client, exec *resilience.Executor, endpoint, token string,
	fn func(ctx context.Context, gh *github.Client) (T, *github.Response, error)) (T, error) {

	e := c.pool.entry(token)
	out, err := resilience.Do(ctx, exec, func(ctx context.Context) (T, error) {
		start := time.Now()
		v, resp, err := fn(ctx, e.client)
		if resp != nil {
			c.pool.observeRate(e, resp.Rate)
		}

		apiErr := Classify(err)
		kind := ""
		if apiErr != nil {
			kind = apiErr.Kind.String()
		}
		c.metrics.RecordAPICall(ctx, endpoint, time.Since(start), kind)

		if apiErr != nil {
			if apiErr.Kind.RateLimit() {
				c.metrics.RecordRateLimit(ctx, endpoint, kind)
				c.logger.Warn(ctx, "github rate limit hit",
					observe.Field{Key: "endpoint", Value: endpoint},
					observe.Field{Key: "attempt", Value: resilience.Attempt(ctx)},
					observe.Field{Key: "error.kind", Value: kind},
					observe.Field{Key: "retry_after_ms", Value: apiErr.RetryAfter.Milliseconds()},
					observe.Field{Key: "client", Value: e.short()},
				)
			}
			var zero T
			return zero, apiErr
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, Classify(err)
	}
	return out, nil
}

func checkSearch(q string, opts SearchOptions) (SearchOptions, error) {
	if err := query.Check(q); err != nil {
		return opts, Classify(err)
	}
	opts = opts.Normalize()
	if opts.Page*opts.PerPage > maxSearchDepth {
		return opts, &APIError{Kind: KindInvalidQuery, Message: ErrPageOutOfRange.Error(), Err: ErrPageOutOfRange}
	}
	return opts, nil
}

func page[T any](opts SearchOptions, total *int, incomplete *bool, resp *github.Response, items []T) *SearchResult[T] {
	r := &SearchResult[T]{
		Page:    opts.Page,
		PerPage: opts.PerPage,
		Items:   items,
	}
	if total != nil {
		r.Total = *total
	}
	if incomplete != nil {
		r.Incomplete = *incomplete
	}
	if resp != nil {
		r.NextPage = resp.NextPage
	}
	if r.Items == nil {
		r.Items = []T{}
	}
	return r
}

// SearchCode runs a code search.
func (c *Client) SearchCode(ctx context.Context, token, q string, opts SearchOptions) (*SearchResult[CodeHit], error) {
	opts, err := checkSearch(q, opts)
	if err != nil {
		return nil, err
	}
	return call(ctx, c, c.search, "search/code", token, func(ctx context.Context, gh *github.Client) (*SearchResult[CodeHit], *github.Response, error) {
		res, resp, err := gh.Search.Code(ctx, q, opts.github())
		if err != nil {
			return nil, resp, err
		}
		hits := make([]CodeHit, 0, len(res.CodeResults))
		for _, r := range res.CodeResults {
			hits = append(hits, codeHit(r))
		}
		return page(opts, res.Total, res.IncompleteResults, resp, hits), resp, nil
	})
}

// SearchRepositories runs a repository search.
func (c *Client) SearchRepositories(ctx context.Context, token, q string, opts SearchOptions) (*SearchResult[RepositoryHit], error) {
	opts, err := checkSearch(q, opts)
	if err != nil {
		return nil, err
	}
	return call(ctx, c, c.search, "search/repositories", token, func(ctx context.Context, gh *github.Client) (*SearchResult[RepositoryHit], *github.Response, error) {
		res, resp, err := gh.Search.Repositories(ctx, q, opts.github())
		if err != nil {
			return nil, resp, err
		}
		hits := make([]RepositoryHit, 0, len(res.Repositories))
		for _, r := range res.Repositories {
			hits = append(hits, repositoryHit(r))
		}
		return page(opts, res.Total, res.IncompleteResults, resp, hits), resp, nil
	})
}

// SearchPullRequests runs an issue search whose query carries is:pr.
func (c *Client) SearchPullRequests(ctx context.Context, token, q string, opts SearchOptions) (*SearchResult[PullRequestHit], error) {
	opts, err := checkSearch(q, opts)
	if err != nil {
		return nil, err
	}
	return call(ctx, c, c.search, "search/issues", token, func(ctx context.Context, gh *github.Client) (*SearchResult[PullRequestHit], *github.Response, error) {
		res, resp, err := gh.Search.Issues(ctx, q, opts.github())
		if err != nil {
			return nil, resp, err
		}
		hits := make([]PullRequestHit, 0, len(res.Issues))
		for _, i := range res.Issues {
			hits = append(hits, pullRequestHit(i))
		}
		return page(opts, res.Total, res.IncompleteResults, resp, hits), resp, nil
	})
}

// SearchIssues runs an issue search whose query carries is:issue.
func (c *Client) SearchIssues(ctx context.Context, token, q string, opts SearchOptions) (*SearchResult[IssueHit], error) {
	opts, err := checkSearch(q, opts)
	if err != nil {
		return nil, err
	}
	return call(ctx, c, c.search, "search/issues", token, func(ctx context.Context, gh *github.Client) (*SearchResult[IssueHit], *github.Response, error) {
		res, resp, err := gh.Search.Issues(ctx, q, opts.github())
		if err != nil {
			return nil, resp, err
		}
		hits := make([]IssueHit, 0, len(res.Issues))
		for _, i := range res.Issues {
			hits = append(hits, issueHit(i))
		}
		return page(opts, res.Total, res.IncompleteResults, resp, hits), resp, nil
	})
}

// SearchCommits runs a commit search.
func (c *Client) SearchCommits(ctx context.Context, token, q string, opts SearchOptions) (*SearchResult[CommitHit], error) {
	opts, err := checkSearch(q, opts)
	if err != nil {
		return nil, err
	}
	return call(ctx, c, c.search, "search/commits", token, func(ctx context.Context, gh *github.Client) (*SearchResult[CommitHit], *github.Response, error) {
		res, resp, err := gh.Search.Commits(ctx, q, opts.github())
		if err != nil {
			return nil, resp, err
		}
		hits := make([]CommitHit, 0, len(res.Commits))
		for _, r := range res.Commits {
			hits = append(hits, commitHit(r))
		}
		return page(opts, res.Total, res.IncompleteResults, resp, hits), resp, nil
	})
}

// Location names a path in a repository at an optional ref.
type Location struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

// Repository returns owner/repo.
func (l Location) Repository() string { return l.Owner + "/" + l.Repo }

func (l Location) validate() error {
	if l.Owner == "" || l.Repo == "" {
		return &APIError{Kind: KindInvalidQuery, Message: "owner and repo are required"}
	}
	return nil
}

func (l Location) contentOptions() *github.RepositoryContentGetOptions {
	if l.Ref == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: l.Ref}
}

// GetFile fetches and decodes one file.
func (c *Client) GetFile(ctx context.Context, token string, loc Location) (*File, error) {
	if err := loc.validate(); err != nil {
		return nil, err
	}
	if strings.Trim(loc.Path, "/") == "" {
		return nil, &APIError{Kind: KindInvalidQuery, Message: "path is required", Err: ErrNotAFile}
	}

	return call(ctx, c, c.core, "repos/contents", token, func(ctx context.Context, gh *github.Client) (*File, *github.Response, error) {
		file, dir, resp, err := gh.Repositories.GetContents(ctx, loc.Owner, loc.Repo, loc.Path, loc.contentOptions())
		if err != nil {
			return nil, resp, err
		}
		if file == nil || dir != nil {
			return nil, resp, &APIError{Kind: KindInvalidQuery, Message: loc.Path + " is a directory", Err: ErrNotAFile}
		}
		if file.GetEncoding() == "none" {
			return nil, resp, &APIError{Kind: KindInvalidQuery, Message: loc.Path + " is too large", Err: ErrFileTooLarge}
		}
		text, err := file.GetContent()
		if err != nil {
			return nil, resp, &APIError{Kind: KindUnknown, Message: "decode content", Err: err}
		}
		return &File{
			Repository: loc.Repository(),
			Path:       file.GetPath(),
			Ref:        loc.Ref,
			SHA:        file.GetSHA(),
			Size:       file.GetSize(),
			URL:        file.GetHTMLURL(),
			Content:    text,
		}, resp, nil
	})
}

// ListDirectory lists one directory level.
func (c *Client) ListDirectory(ctx context.Context, token string, loc Location) ([]Entry, error) {
	if err := loc.validate(); err != nil {
		return nil, err
	}
	return call(ctx, c, c.core, "repos/contents", token, func(ctx context.Context, gh *github.Client) ([]Entry, *github.Response, error) {
		file, dir, resp, err := gh.Repositories.GetContents(ctx, loc.Owner, loc.Repo, loc.Path, loc.contentOptions())
		if err != nil {
			return nil, resp, err
		}
		if file != nil {
			return []Entry{entry(file)}, resp, nil
		}
		out := make([]Entry, 0, len(dir))
		for _, item := range dir {
			out = append(out, entry(item))
		}
		return out, resp, nil
	})
}

// StructureOptions bounds ViewStructure.
type StructureOptions struct {
	// Depth is the number of directory levels listed.
	// Default: 1, maximum 5
	Depth int `json:"depth,omitempty"`

	// MaxEntries stops the walk once reached.
	// Default: 500
	MaxEntries int `json:"max_entries,omitempty"`

	// Parallelism bounds concurrent directory listings.
	// Default: 4
	Parallelism int `json:"parallelism,omitempty"`
}

const maxStructureDepth = 5

// Normalize applies defaults and limits.
func (o StructureOptions) Normalize() StructureOptions {
	if o.Depth <= 0 {
		o.Depth = 1
	}
	o.Depth = min(o.Depth, maxStructureDepth)
	if o.MaxEntries <= 0 {
		o.MaxEntries = 500
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 4
	}
	return o
}

// ViewStructure lists loc.Path and its subdirectories down to opts.Depth
// levels, breadth first. Entries are sorted by path.
func (c *Client) ViewStructure(ctx context.Context, token string, loc Location, opts StructureOptions) (*Tree, error) {
	opts = opts.Normalize()
	loc.Path = strings.Trim(loc.Path, "/")

	tree := &Tree{Repository: loc.Repository(), Ref: loc.Ref, Root: loc.Path, Depth: opts.Depth}
	level := []string{loc.Path}

	for depth := 1; depth <= opts.Depth && len(level) > 0; depth++ {
		var (
			mu   sync.Mutex
			next []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Parallelism)

		for _, dir := range level {
			g.Go(func() error {
				entries, err := c.ListDirectory(gctx, token, Location{Owner: loc.Owner, Repo: loc.Repo, Path: dir, Ref: loc.Ref})
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				for _, e := range entries {
					if e.Path == "" {
						e.Path = path.Join(dir, e.Name)
					}
					tree.Entries = append(tree.Entries, e)
					if e.Type == "dir" {
						next = append(next, e.Path)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, Classify(err)
		}

		if len(tree.Entries) >= opts.MaxEntries {
			tree.Truncated = len(tree.Entries) > opts.MaxEntries || (depth < opts.Depth && len(next) > 0)
			break
		}
		level = next
	}

	sort.Slice(tree.Entries, func(i, j int) bool { return tree.Entries[i].Path < tree.Entries[j].Path })
	if len(tree.Entries) > opts.MaxEntries {
		tree.Entries = tree.Entries[:opts.MaxEntries]
	}
	if tree.Entries == nil {
		tree.Entries = []Entry{}
	}
	return tree, nil
}
