package query

// Scope fields shared by filters that target repositories.
type Scope struct {
	// Owner is a user or organization login. Several owners widen the search.
	Owner []string `json:"owner,omitempty" yaml:"owner,omitempty"`

	// Repo is a repository name, or owner/name.
	Repo []string `json:"repo,omitempty" yaml:"repo,omitempty"`
}

// Text fields shared by every filter.
type Text struct {
	// Terms are free-text terms, all of which must match.
	Terms []string `json:"terms,omitempty" yaml:"terms,omitempty"`

	// AnyOf are free-text terms of which at least one must match.
	AnyOf []string `json:"any_of,omitempty" yaml:"any_of,omitempty"`

	// ExactPhrase is matched verbatim and always quoted.
	ExactPhrase string `json:"exact_phrase,omitempty" yaml:"exact_phrase,omitempty"`
}

// CodeFilter selects code search results.
type CodeFilter struct {
	Text  `yaml:",inline"`
	Scope `yaml:",inline"`

	Language  []string `json:"language,omitempty" yaml:"language,omitempty"`
	Extension []string `json:"extension,omitempty" yaml:"extension,omitempty"`
	Filename  string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	Path      string   `json:"path,omitempty" yaml:"path,omitempty"`

	// Size is a byte range such as ">1000" or "100..200".
	Size string `json:"size,omitempty" yaml:"size,omitempty"`

	// Match restricts matching to "file" and/or "path".
	Match []string `json:"match,omitempty" yaml:"match,omitempty"`
}

// RepoFilter selects repository search results.
type RepoFilter struct {
	Text `yaml:",inline"`

	Owner    []string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Language []string `json:"language,omitempty" yaml:"language,omitempty"`
	Topic    []string `json:"topic,omitempty" yaml:"topic,omitempty"`
	License  string   `json:"license,omitempty" yaml:"license,omitempty"`

	// Ranges such as ">=100", "10..50" or "<2024-01-01".
	Stars   string `json:"stars,omitempty" yaml:"stars,omitempty"`
	Forks   string `json:"forks,omitempty" yaml:"forks,omitempty"`
	Size    string `json:"size,omitempty" yaml:"size,omitempty"`
	Created string `json:"created,omitempty" yaml:"created,omitempty"`
	Pushed  string `json:"pushed,omitempty" yaml:"pushed,omitempty"`

	GoodFirstIssues string `json:"good_first_issues,omitempty" yaml:"good_first_issues,omitempty"`

	// Visibility is "public" or "private".
	Visibility string `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Archived   *bool  `json:"archived,omitempty" yaml:"archived,omitempty"`
	Template   *bool  `json:"template,omitempty" yaml:"template,omitempty"`

	// Fork is "true" to include forks or "only" to return only forks.
	Fork string `json:"fork,omitempty" yaml:"fork,omitempty"`

	// Match restricts matching to "name", "description", "topics" and/or "readme".
	Match []string `json:"match,omitempty" yaml:"match,omitempty"`
}

// Discussion holds the people and time fields shared by issue and pull
// request filters.
type Discussion struct {
	// State is "open" or "closed".
	State string `json:"state,omitempty" yaml:"state,omitempty"`

	Author    string   `json:"author,omitempty" yaml:"author,omitempty"`
	Assignee  string   `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Mentions  string   `json:"mentions,omitempty" yaml:"mentions,omitempty"`
	Commenter string   `json:"commenter,omitempty" yaml:"commenter,omitempty"`
	Involves  string   `json:"involves,omitempty" yaml:"involves,omitempty"`
	Label     []string `json:"label,omitempty" yaml:"label,omitempty"`
	Milestone string   `json:"milestone,omitempty" yaml:"milestone,omitempty"`

	Created string `json:"created,omitempty" yaml:"created,omitempty"`
	Updated string `json:"updated,omitempty" yaml:"updated,omitempty"`
	Closed  string `json:"closed,omitempty" yaml:"closed,omitempty"`

	Comments  string `json:"comments,omitempty" yaml:"comments,omitempty"`
	Reactions string `json:"reactions,omitempty" yaml:"reactions,omitempty"`

	NoAssignee  bool `json:"no_assignee,omitempty" yaml:"no_assignee,omitempty"`
	NoLabel     bool `json:"no_label,omitempty" yaml:"no_label,omitempty"`
	NoMilestone bool `json:"no_milestone,omitempty" yaml:"no_milestone,omitempty"`

	// Match restricts matching to "title", "body" and/or "comments".
	Match []string `json:"match,omitempty" yaml:"match,omitempty"`
}

// PullRequestFilter selects pull request search results.
type PullRequestFilter struct {
	Text       `yaml:",inline"`
	Scope      `yaml:",inline"`
	Discussion `yaml:",inline"`

	Base            string `json:"base,omitempty" yaml:"base,omitempty"`
	Head            string `json:"head,omitempty" yaml:"head,omitempty"`
	ReviewedBy      string `json:"reviewed_by,omitempty" yaml:"reviewed_by,omitempty"`
	ReviewRequested string `json:"review_requested,omitempty" yaml:"review_requested,omitempty"`

	// Review is "none", "required", "approved" or "changes_requested".
	Review string `json:"review,omitempty" yaml:"review,omitempty"`

	MergedAt string `json:"merged_at,omitempty" yaml:"merged_at,omitempty"`
	Merged   *bool  `json:"merged,omitempty" yaml:"merged,omitempty"`
	Draft    *bool  `json:"draft,omitempty" yaml:"draft,omitempty"`
}

// IssueFilter selects issue search results. Pull requests are excluded.
type IssueFilter struct {
	Text       `yaml:",inline"`
	Scope      `yaml:",inline"`
	Discussion `yaml:",inline"`

	NoProject bool `json:"no_project,omitempty" yaml:"no_project,omitempty"`
}

// CommitFilter selects commit search results.
type CommitFilter struct {
	Text  `yaml:",inline"`
	Scope `yaml:",inline"`

	Author         string `json:"author,omitempty" yaml:"author,omitempty"`
	Committer      string `json:"committer,omitempty" yaml:"committer,omitempty"`
	AuthorName     string `json:"author_name,omitempty" yaml:"author_name,omitempty"`
	AuthorEmail    string `json:"author_email,omitempty" yaml:"author_email,omitempty"`
	CommitterEmail string `json:"committer_email,omitempty" yaml:"committer_email,omitempty"`
	AuthorDate     string `json:"author_date,omitempty" yaml:"author_date,omitempty"`
	CommitterDate  string `json:"committer_date,omitempty" yaml:"committer_date,omitempty"`
	Hash           string `json:"hash,omitempty" yaml:"hash,omitempty"`
	Parent         string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Tree           string `json:"tree,omitempty" yaml:"tree,omitempty"`

	// Merge restricts to merge commits (true) or excludes them (false).
	Merge *bool `json:"merge,omitempty" yaml:"merge,omitempty"`
}
