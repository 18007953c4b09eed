package githubapi

import (
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
)

// SearchResult is one page of typed search hits.
type SearchResult[T any] struct {
	Total      int  `json:"total"`
	Incomplete bool `json:"incomplete,omitempty"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	NextPage   int  `json:"next_page,omitempty"`
	Items      []T  `json:"items"`
}

// CodeHit is a code search match.
type CodeHit struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	Name       string `json:"name"`
	SHA        string `json:"sha"`
	URL        string `json:"url"`

	// Fragments are the text-match snippets, present when requested.
	Fragments []string `json:"fragments,omitempty"`
}

// RepositoryHit is a repository search match.
type RepositoryHit struct {
	FullName      string    `json:"full_name"`
	Description   string    `json:"description,omitempty"`
	URL           string    `json:"url"`
	Language      string    `json:"language,omitempty"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	OpenIssues    int       `json:"open_issues"`
	Topics        []string  `json:"topics,omitempty"`
	License       string    `json:"license,omitempty"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	Archived      bool      `json:"archived,omitempty"`
	Fork          bool      `json:"fork,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
}

// Thread holds the fields issues and pull requests share.
type Thread struct {
	Repository string     `json:"repository"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	State      string     `json:"state"`
	Author     string     `json:"author,omitempty"`
	Labels     []string   `json:"labels,omitempty"`
	Comments   int        `json:"comments"`
	URL        string     `json:"url"`
	Body       string     `json:"body,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
}

// PullRequestHit is a pull request search match.
type PullRequestHit struct {
	Thread
	DiffURL string `json:"diff_url,omitempty"`
}

// IssueHit is an issue search match.
type IssueHit struct {
	Thread
	Assignees []string `json:"assignees,omitempty"`
}

// CommitHit is a commit search match.
type CommitHit struct {
	Repository string    `json:"repository"`
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	Author     string    `json:"author,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	Date       time.Time `json:"date"`
	URL        string    `json:"url"`
}

// File is a decoded repository file.
type File struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	Ref        string `json:"ref,omitempty"`
	SHA        string `json:"sha"`
	Size       int    `json:"size"`
	URL        string `json:"url"`
	Content    string `json:"content"`
}

// Entry is one item of a directory listing.
type Entry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"` // file, dir, symlink or submodule
	Size int    `json:"size,omitempty"`
	SHA  string `json:"sha,omitempty"`
}

// Tree is a depth-limited view of a repository directory.
type Tree struct {
	Repository string  `json:"repository"`
	Ref        string  `json:"ref,omitempty"`
	Root       string  `json:"root"`
	Depth      int     `json:"depth"`
	Entries    []Entry `json:"entries"`
	Truncated  bool    `json:"truncated,omitempty"`
}

func codeHit(r *github.CodeResult) CodeHit {
	h := CodeHit{
		Repository: r.GetRepository().GetFullName(),
		Path:       r.GetPath(),
		Name:       r.GetName(),
		SHA:        r.GetSHA(),
		URL:        r.GetHTMLURL(),
	}
	for _, m := range r.TextMatches {
		if f := m.GetFragment(); f != "" {
			h.Fragments = append(h.Fragments, f)
		}
	}
	return h
}

func repositoryHit(r *github.Repository) RepositoryHit {
	return RepositoryHit{
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		URL:           r.GetHTMLURL(),
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		Topics:        r.Topics,
		License:       r.GetLicense().GetSPDXID(),
		DefaultBranch: r.GetDefaultBranch(),
		Archived:      r.GetArchived(),
		Fork:          r.GetFork(),
		UpdatedAt:     r.GetUpdatedAt().Time,
		PushedAt:      r.GetPushedAt().Time,
	}
}

func thread(i *github.Issue) Thread {
	t := Thread{
		Repository: repositoryFromAPIURL(i.GetRepositoryURL()),
		Number:     i.GetNumber(),
		Title:      i.GetTitle(),
		State:      i.GetState(),
		Author:     i.GetUser().GetLogin(),
		Comments:   i.GetComments(),
		URL:        i.GetHTMLURL(),
		Body:       i.GetBody(),
		CreatedAt:  i.GetCreatedAt().Time,
		UpdatedAt:  i.GetUpdatedAt().Time,
	}
	if i.ClosedAt != nil {
		closed := i.ClosedAt.Time
		t.ClosedAt = &closed
	}
	for _, l := range i.Labels {
		t.Labels = append(t.Labels, l.GetName())
	}
	return t
}

func pullRequestHit(i *github.Issue) PullRequestHit {
	return PullRequestHit{Thread: thread(i), DiffURL: i.GetPullRequestLinks().GetDiffURL()}
}

func issueHit(i *github.Issue) IssueHit {
	h := IssueHit{Thread: thread(i)}
	for _, a := range i.Assignees {
		h.Assignees = append(h.Assignees, a.GetLogin())
	}
	return h
}

func commitHit(c *github.CommitResult) CommitHit {
	return CommitHit{
		Repository: c.GetRepository().GetFullName(),
		SHA:        c.GetSHA(),
		Message:    c.GetCommit().GetMessage(),
		Author:     c.GetAuthor().GetLogin(),
		AuthorName: c.GetCommit().GetAuthor().GetName(),
		Date:       c.GetCommit().GetAuthor().GetDate().Time,
		URL:        c.GetHTMLURL(),
	}
}

func entry(c *github.RepositoryContent) Entry {
	return Entry{
		Path: c.GetPath(),
		Name: c.GetName(),
		Type: c.GetType(),
		Size: c.GetSize(),
		SHA:  c.GetSHA(),
	}
}

// repositoryFromAPIURL turns https://api.github.com/repos/owner/name into
// owner/name.
func repositoryFromAPIURL(u string) string {
	_, rest, ok := strings.Cut(u, "/repos/")
	if !ok {
		return ""
	}
	return rest
}
