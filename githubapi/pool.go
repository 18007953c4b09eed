package githubapi

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// AnonymousFingerprint identifies the client used when no token is given.
const AnonymousFingerprint = "anonymous"

// Fingerprint returns the SHA-256 hex digest of token, used as the pool key
// so raw tokens are never stored as keys or logged.
func Fingerprint(token string) string {
	if token == "" {
		return AnonymousFingerprint
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	// MaxClients bounds the number of cached clients; the least recently
	// used one is evicted.
	// Default: 32
	MaxClients int

	// BaseURL is the REST API root. A trailing slash is added when missing.
	// Default: https://api.github.com/
	BaseURL string

	// UserAgent is sent with every request.
	// Default: codescout
	UserAgent string

	// HTTPClient is the base client whose transport all GitHub clients use.
	// Default: a client with no overall timeout (deadlines come from ctx)
	HTTPClient *http.Client
}

// RateSnapshot is the last rate-limit state GitHub reported for a client.
type RateSnapshot struct {
	Client    string    `json:"client"` // short fingerprint
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	SeenAt    time.Time `json:"seen_at"`
}

// PoolStats summarizes pool activity.
type PoolStats struct {
	Size      int   `json:"size"`
	Created   int64 `json:"created"`
	Reused    int64 `json:"reused"`
	Evictions int64 `json:"evictions"`
}

type poolEntry struct {
	fingerprint string
	client      *github.Client

	// guarded by Pool.mu
	rate     github.Rate
	rateSeen time.Time
}

func (e *poolEntry) short() string {
	if len(e.fingerprint) > 12 {
		return e.fingerprint[:12]
	}
	return e.fingerprint
}

// Pool resolves one *github.Client per distinct credential.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent first use of a credential
//   builds a single client.
// - Ownership: raw tokens are held only inside the client's token source.
type Pool struct {
	config  PoolConfig
	baseURL *url.URL
	group   singleflight.Group

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	stats   PoolStats
}

// NewPool creates an empty pool.
func NewPool(config PoolConfig) (*Pool, error) {
	if config.MaxClients <= 0 {
		config.MaxClients = 32
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.github.com/"
	}
	if config.BaseURL[len(config.BaseURL)-1] != '/' {
		config.BaseURL += "/"
	}
	if config.UserAgent == "" {
		config.UserAgent = "codescout"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Pool{
		config:  config,
		baseURL: base,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}, nil
}

// Client returns the client for token, building it on first use. An empty
// token yields the unauthenticated client.
func (p *Pool) Client(token string) *github.Client {
	return p.entry(token).client
}

func (p *Pool) entry(token string) *poolEntry {
	fp := Fingerprint(token)
	if e, ok := p.lookup(fp); ok {
		return e
	}

	v, _, _ := p.group.Do(fp, func() (any, error) {
		if e, ok := p.lookup(fp); ok {
			return e, nil
		}
		return p.insert(&poolEntry{fingerprint: fp, client: p.build(token)}), nil
	})
	return v.(*poolEntry)
}

func (p *Pool) lookup(fp string) (*poolEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	el, ok := p.entries[fp]
	if !ok {
		return nil, false
	}
	p.order.MoveToFront(el)
	p.stats.Reused++
	return el.Value.(*poolEntry), true
}

func (p *Pool) insert(e *poolEntry) *poolEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries[e.fingerprint] = p.order.PushFront(e)
	p.stats.Created++

	for p.order.Len() > p.config.MaxClients {
		oldest := p.order.Back()
		p.order.Remove(oldest)
		delete(p.entries, oldest.Value.(*poolEntry).fingerprint)
		p.stats.Evictions++
	}
	return e
}

func (p *Pool) build(token string) *github.Client {
	httpClient := p.config.HTTPClient
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.config.HTTPClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	c := github.NewClient(httpClient)
	base := *p.baseURL
	c.BaseURL = &base
	c.UserAgent = p.config.UserAgent
	return c
}

// observeRate records the rate state from a response.
func (p *Pool) observeRate(e *poolEntry, r github.Rate) {
	if r.Limit == 0 {
		return
	}
	p.mu.Lock()
	e.rate = r
	e.rateSeen = time.Now()
	p.mu.Unlock()
}

// Rates returns the last reported rate state of each pooled client, most
// constrained first.
func (p *Pool) Rates() []RateSnapshot {
	p.mu.Lock()
	out := make([]RateSnapshot, 0, p.order.Len())
	for el := p.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*poolEntry)
		if e.rateSeen.IsZero() {
			continue
		}
		out = append(out, RateSnapshot{
			Client:    e.short(),
			Limit:     e.rate.Limit,
			Remaining: e.rate.Remaining,
			ResetAt:   e.rate.Reset.Time,
			SeenAt:    e.rateSeen,
		})
	}
	p.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Remaining < out[j].Remaining })
	return out
}

// Stats returns pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Size = p.order.Len()
	return s
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Len()
}
