package research

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/codescout/cache"
	"github.com/jonwraymond/codescout/query"
)

// Kind selects the searched entity.
type Kind string

const (
	KindCode         Kind = "code"
	KindRepositories Kind = "repositories"
	KindPullRequests Kind = "pull_requests"
	KindIssues       Kind = "issues"
	KindCommits      Kind = "commits"
)

// Kinds lists every search kind.
var Kinds = []Kind{KindCode, KindRepositories, KindPullRequests, KindIssues, KindCommits}

// ParseKind accepts the kind names plus a few singular aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code":
		return KindCode, nil
	case "repositories", "repos", "repo":
		return KindRepositories, nil
	case "pull_requests", "pulls", "pr", "prs":
		return KindPullRequests, nil
	case "issues", "issue":
		return KindIssues, nil
	case "commits", "commit":
		return KindCommits, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// prefix returns the cache prefix, which also selects the TTL.
func (k Kind) prefix() string {
	switch k {
	case KindCode:
		return cache.PrefixCodeSearch
	case KindRepositories:
		return cache.PrefixRepoSearch
	case KindPullRequests:
		return cache.PrefixPullRequest
	case KindIssues:
		return cache.PrefixIssueSearch
	case KindCommits:
		return cache.PrefixCommitSearch
	}
	return ""
}

// NewFilter returns a pointer to an empty filter of the type kind expects,
// ready for decoding.
func NewFilter(kind Kind) (any, error) {
	switch kind {
	case KindCode:
		return &query.CodeFilter{}, nil
	case KindRepositories:
		return &query.RepoFilter{}, nil
	case KindPullRequests:
		return &query.PullRequestFilter{}, nil
	case KindIssues:
		return &query.IssueFilter{}, nil
	case KindCommits:
		return &query.CommitFilter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// buildQuery dispatches to the builder for kind. filter may be the filter
// value or a pointer to it.
func buildQuery(kind Kind, filter any) (string, error) {
	mismatch := fmt.Errorf("%w: %s search got %T", ErrFilterType, kind, filter)

	switch kind {
	case KindCode:
		f, ok := deref[query.CodeFilter](filter)
		if !ok {
			return "", mismatch
		}
		return query.BuildCodeQuery(f), nil
	case KindRepositories:
		f, ok := deref[query.RepoFilter](filter)
		if !ok {
			return "", mismatch
		}
		return query.BuildRepoQuery(f), nil
	case KindPullRequests:
		f, ok := deref[query.PullRequestFilter](filter)
		if !ok {
			return "", mismatch
		}
		return query.BuildPullRequestQuery(f), nil
	case KindIssues:
		f, ok := deref[query.IssueFilter](filter)
		if !ok {
			return "", mismatch
		}
		return query.BuildIssueQuery(f), nil
	case KindCommits:
		f, ok := deref[query.CommitFilter](filter)
		if !ok {
			return "", mismatch
		}
		return query.BuildCommitQuery(f), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func deref[T any](v any) (T, bool) {
	switch f := v.(type) {
	case T:
		return f, true
	case *T:
		if f != nil {
			return *f, true
		}
	}
	var zero T
	return zero, false
}
