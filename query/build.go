package query

// BuildCodeQuery builds a code search query.
func BuildCodeQuery(f CodeFilter) string {
	var t tokens
	t.text(f.Text)
	t.scope(f.Owner, f.Repo)
	t.qualifiers("language", f.Language)
	t.qualifiers("extension", f.Extension)
	t.qualifier("filename", f.Filename)
	t.qualifier("path", f.Path)
	t.qualifier("size", f.Size)
	t.in(f.Match)
	return t.finish("")
}

// BuildRepoQuery builds a repository search query. Owner alone always maps to
// user:<owner> since the results are the repositories themselves.
func BuildRepoQuery(f RepoFilter) string {
	var t tokens
	t.text(f.Text)
	t.qualifiers("user", f.Owner)
	t.qualifiers("language", f.Language)
	t.qualifiers("topic", f.Topic)
	t.qualifier("license", f.License)
	t.qualifier("stars", f.Stars)
	t.qualifier("forks", f.Forks)
	t.qualifier("size", f.Size)
	t.qualifier("created", f.Created)
	t.qualifier("pushed", f.Pushed)
	t.qualifier("good-first-issues", f.GoodFirstIssues)
	t.qualifier("is", f.Visibility)
	t.tristate(f.Archived, "archived:true", "archived:false")
	t.tristate(f.Template, "template:true", "template:false")
	t.qualifier("fork", f.Fork)
	t.in(f.Match)
	return t.finish("")
}

// BuildPullRequestQuery builds a pull request search query. is:pr is always
// appended so results never include issues.
func BuildPullRequestQuery(f PullRequestFilter) string {
	var t tokens
	t.text(f.Text)
	t.scope(f.Owner, f.Repo)
	t.discussion(f.Discussion)
	t.qualifier("base", f.Base)
	t.qualifier("head", f.Head)
	t.qualifier("reviewed-by", f.ReviewedBy)
	t.qualifier("review-requested", f.ReviewRequested)
	t.qualifier("review", f.Review)
	t.qualifier("merged", f.MergedAt)
	t.tristate(f.Merged, "is:merged", "is:unmerged")
	t.tristate(f.Draft, "draft:true", "draft:false")
	t.in(f.Match)
	return t.finish("is:pr")
}

// BuildIssueQuery builds an issue search query. is:issue is always appended so
// results never include pull requests.
func BuildIssueQuery(f IssueFilter) string {
	var t tokens
	t.text(f.Text)
	t.scope(f.Owner, f.Repo)
	t.discussion(f.Discussion)
	t.flag(f.NoProject, "project")
	t.in(f.Match)
	return t.finish("is:issue")
}

// BuildCommitQuery builds a commit search query.
func BuildCommitQuery(f CommitFilter) string {
	var t tokens
	t.text(f.Text)
	t.scope(f.Owner, f.Repo)
	t.qualifier("author", f.Author)
	t.qualifier("committer", f.Committer)
	t.qualifier("author-name", f.AuthorName)
	t.qualifier("author-email", f.AuthorEmail)
	t.qualifier("committer-email", f.CommitterEmail)
	t.qualifier("author-date", f.AuthorDate)
	t.qualifier("committer-date", f.CommitterDate)
	t.qualifier("hash", f.Hash)
	t.qualifier("parent", f.Parent)
	t.qualifier("tree", f.Tree)
	t.tristate(f.Merge, "merge:true", "merge:false")
	return t.finish("")
}

func (t *tokens) text(f Text) {
	t.terms(f.Terms)
	t.anyOf(f.AnyOf)
	t.phrase(f.ExactPhrase)
}

// discussion adds the fields shared by issues and pull requests. Match is
// added by the caller so it stays after entity-specific qualifiers.
func (t *tokens) discussion(d Discussion) {
	t.qualifier("is", d.State)
	t.qualifier("author", d.Author)
	t.qualifier("assignee", d.Assignee)
	t.qualifier("mentions", d.Mentions)
	t.qualifier("commenter", d.Commenter)
	t.qualifier("involves", d.Involves)
	t.qualifiers("label", d.Label)
	t.qualifier("milestone", d.Milestone)
	t.qualifier("created", d.Created)
	t.qualifier("updated", d.Updated)
	t.qualifier("closed", d.Closed)
	t.qualifier("comments", d.Comments)
	t.qualifier("reactions", d.Reactions)
	t.flag(d.NoAssignee, "assignee")
	t.flag(d.NoLabel, "label")
	t.flag(d.NoMilestone, "milestone")
}
