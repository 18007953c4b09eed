package research

import (
	"context"
	"fmt"

	"github.com/jonwraymond/codescout/content"
	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/observe"
	"github.com/jonwraymond/codescout/query"
)

// CallOptions carry the credential and paging of one search.
type CallOptions struct {
	githubapi.SearchOptions

	// Token is the GitHub credential; empty searches anonymously.
	Token string `json:"-"`

	// RequestID tags logs and spans. Default: a random UUID, unless ctx
	// already carries one.
	RequestID string `json:"-"`
}

// SearchResponse is one page of hits. Exactly one of the hit slices is set,
// matching Kind.
type SearchResponse struct {
	Kind       Kind   `json:"kind"`
	Query      string `json:"query"`
	Total      int    `json:"total"`
	Incomplete bool   `json:"incomplete,omitempty"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	NextPage   int    `json:"next_page,omitempty"`
	Cached     bool   `json:"cached"`

	Code         []githubapi.CodeHit        `json:"code,omitempty"`
	Repositories []githubapi.RepositoryHit  `json:"repositories,omitempty"`
	PullRequests []githubapi.PullRequestHit `json:"pull_requests,omitempty"`
	Issues       []githubapi.IssueHit       `json:"issues,omitempty"`
	Commits      []githubapi.CommitHit      `json:"commits,omitempty"`

	// Warnings report redactions made in fragments and bodies.
	Warnings []content.Warning `json:"warnings,omitempty"`
}

// searchKey is the cached identity of a search. The credential fingerprint
// keeps results visible to one token from being served to another.
type searchKey struct {
	Query      string                  `json:"query"`
	Options    githubapi.SearchOptions `json:"options"`
	Credential string                  `json:"credential"`
}

// Search builds the query for filter, which must be the kind's filter type
// (value or pointer), and returns one page of hits. Code fragments and
// issue and pull request bodies pass through the content processor.
func (o *Orchestrator) Search(ctx context.Context, kind Kind, filter any, opts CallOptions) (*SearchResponse, error) {
	ctx, err := o.begin(ctx, opts.RequestID)
	if err != nil {
		return nil, err
	}

	q, err := buildQuery(kind, filter)
	if err != nil {
		return nil, invalid(err.Error(), err)
	}
	if err := query.Check(q); err != nil {
		return nil, githubapi.Classify(err)
	}

	meta := observe.OperationMeta{Kind: observe.KindSearch, Name: string(kind)}
	return observe.Observe(ctx, o.obs, meta, func(ctx context.Context) (*SearchResponse, error) {
		sopts := opts.SearchOptions.Normalize()
		key := searchKey{Query: q, Options: sopts, Credential: githubapi.Fingerprint(opts.Token)}

		resp := &SearchResponse{Kind: kind, Query: q}
		var err error
		switch kind {
		case KindCode:
			resp.Code, err = runSearch(ctx, o, resp, key, func(ctx context.Context) (*githubapi.SearchResult[githubapi.CodeHit], error) {
				return o.client.SearchCode(ctx, opts.Token, q, sopts)
			})
		case KindRepositories:
			resp.Repositories, err = runSearch(ctx, o, resp, key, func(ctx context.Context) (*githubapi.SearchResult[githubapi.RepositoryHit], error) {
				return o.client.SearchRepositories(ctx, opts.Token, q, sopts)
			})
		case KindPullRequests:
			resp.PullRequests, err = runSearch(ctx, o, resp, key, func(ctx context.Context) (*githubapi.SearchResult[githubapi.PullRequestHit], error) {
				return o.client.SearchPullRequests(ctx, opts.Token, q, sopts)
			})
		case KindIssues:
			resp.Issues, err = runSearch(ctx, o, resp, key, func(ctx context.Context) (*githubapi.SearchResult[githubapi.IssueHit], error) {
				return o.client.SearchIssues(ctx, opts.Token, q, sopts)
			})
		case KindCommits:
			resp.Commits, err = runSearch(ctx, o, resp, key, func(ctx context.Context) (*githubapi.SearchResult[githubapi.CommitHit], error) {
				return o.client.SearchCommits(ctx, opts.Token, q, sopts)
			})
		}
		if err != nil {
			return nil, err
		}

		o.processHits(ctx, resp)
		return resp, nil
	})
}

func runSearch[T any](ctx context.Context, o *Orchestrator, resp *SearchResponse, key searchKey,
	fetch func(context.Context) (*githubapi.SearchResult[T], error),
) ([]T, error) {
	result, hit, err := cachedJSON(ctx, o, resp.Kind.prefix(), key, fetch)
	if err != nil {
		return nil, err
	}
	resp.Total = result.Total
	resp.Incomplete = result.Incomplete
	resp.Page = result.Page
	resp.PerPage = result.PerPage
	resp.NextPage = result.NextPage
	resp.Cached = hit
	return result.Items, nil
}

// processHits runs every piece of untrusted text in the response through the
// processor: code fragments, repository descriptions, thread titles and
// bodies, and commit messages.
// Cached responses hold raw text, so processing runs on every call.
func (o *Orchestrator) processHits(ctx context.Context, resp *SearchResponse) {
	var (
		fragments []content.Fragment
		targets   []*string
	)
	add := func(path string, text *string) {
		if *text == "" {
			return
		}
		fragments = append(fragments, content.Fragment{Path: path, Text: *text})
		targets = append(targets, text)
	}

	for i := range resp.Code {
		h := &resp.Code[i]
		for j := range h.Fragments {
			add(h.Repository+"/"+h.Path, &h.Fragments[j])
		}
	}
	for i := range resp.Repositories {
		r := &resp.Repositories[i]
		add(r.FullName+"/description.txt", &r.Description)
	}
	for i := range resp.PullRequests {
		t := &resp.PullRequests[i].Thread
		add(threadPath(t), &t.Title)
		add(threadPath(t), &t.Body)
	}
	for i := range resp.Issues {
		t := &resp.Issues[i].Thread
		add(threadPath(t), &t.Title)
		add(threadPath(t), &t.Body)
	}
	for i := range resp.Commits {
		c := &resp.Commits[i]
		add(c.Repository+"/commit/"+c.SHA+".txt", &c.Message)
	}
	if len(fragments) == 0 {
		return
	}

	for i, p := range o.processor.ProcessAll(ctx, fragments) {
		*targets[i] = p.Text
		resp.Warnings = append(resp.Warnings, p.Warnings...)
	}
}

// threadPath names a body so it is processed as Markdown.
func threadPath(t *githubapi.Thread) string {
	return fmt.Sprintf("%s/%d.md", t.Repository, t.Number)
}
