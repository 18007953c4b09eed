package query

import (
	"errors"
	"fmt"
	"testing"
)

func ptr(b bool) *bool { return &b }

func TestBuildCodeQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter CodeFilter
		want   string
	}{
		{
			name:   "empty filter",
			filter: CodeFilter{},
			want:   "",
		},
		{
			name:   "terms only",
			filter: CodeFilter{Text: Text{Terms: []string{"useState", "useEffect"}}},
			want:   "useState useEffect",
		},
		{
			name: "owner and repo collapse",
			filter: CodeFilter{
				Text:  Text{Terms: []string{"useState"}},
				Scope: Scope{Owner: []string{"facebook"}, Repo: []string{"react"}},
			},
			want: "useState repo:facebook/react",
		},
		{
			name:   "owner alone becomes user per owner",
			filter: CodeFilter{Text: Text{Terms: []string{"x"}}, Scope: Scope{Owner: []string{"a", "b"}}},
			want:   "x user:a user:b",
		},
		{
			name:   "qualified repo kept",
			filter: CodeFilter{Scope: Scope{Repo: []string{"golang/go"}}},
			want:   "repo:golang/go",
		},
		{
			name: "owner by repo cross product",
			filter: CodeFilter{
				Scope: Scope{Owner: []string{"a", "b"}, Repo: []string{"x", "y"}},
			},
			want: "repo:a/x OR repo:a/y OR repo:b/x OR repo:b/y",
		},
		{
			name: "owner kept beside qualified repo",
			filter: CodeFilter{
				Scope: Scope{Owner: []string{"acme"}, Repo: []string{"golang/go"}},
			},
			want: "repo:golang/go OR user:acme",
		},
		{
			name: "owner pairs with bare repo only",
			filter: CodeFilter{
				Scope: Scope{Owner: []string{"acme"}, Repo: []string{"golang/go", "tool"}},
			},
			want: "repo:golang/go OR repo:acme/tool",
		},
		{
			name: "qualifiers in fixed order",
			filter: CodeFilter{
				Text:      Text{Terms: []string{"func"}},
				Language:  []string{"go"},
				Extension: []string{"go"},
				Filename:  "main.go",
				Path:      "cmd/",
				Size:      "<1000",
				Match:     []string{"file", "path"},
			},
			want: "func language:go extension:go filename:main.go path:cmd/ size:<1000 in:file,path",
		},
		{
			name:   "path with spaces quoted",
			filter: CodeFilter{Path: "docs/getting started"},
			want:   `path:"docs/getting started"`,
		},
		{
			name:   "duplicates and blanks dropped",
			filter: CodeFilter{Text: Text{Terms: []string{"a", " ", "a", "b"}}},
			want:   "a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildCodeQuery(tt.filter); got != tt.want {
				t.Errorf("BuildCodeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQuery_AnyOfAndPhrase(t *testing.T) {
	f := CodeFilter{Text: Text{
		Terms:       []string{"hook"},
		AnyOf:       []string{"useState", "use reducer"},
		ExactPhrase: "custom hook",
	}}
	want := `hook useState OR "use reducer" "custom hook"`
	if got := BuildCodeQuery(f); got != want {
		t.Errorf("BuildCodeQuery() = %q, want %q", got, want)
	}

	single := CodeFilter{Text: Text{ExactPhrase: "single"}}
	if got := BuildCodeQuery(single); got != `"single"` {
		t.Errorf("exact phrase must always be quoted, got %q", got)
	}
}

func TestBuildRepoQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter RepoFilter
		want   string
	}{
		{"empty", RepoFilter{}, ""},
		{
			name: "full",
			filter: RepoFilter{
				Text:       Text{Terms: []string{"cli"}},
				Owner:      []string{"spf13"},
				Language:   []string{"go"},
				Topic:      []string{"cli", "terminal"},
				License:    "apache-2.0",
				Stars:      ">=1000",
				Pushed:     ">2024-01-01",
				Visibility: "public",
				Archived:   ptr(false),
				Match:      []string{"name", "description"},
			},
			want: "cli user:spf13 language:go topic:cli topic:terminal license:apache-2.0 stars:>=1000 pushed:>2024-01-01 is:public archived:false in:name,description",
		},
		{
			name:   "forks and templates",
			filter: RepoFilter{Fork: "only", Template: ptr(true)},
			want:   "template:true fork:only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildRepoQuery(tt.filter); got != tt.want {
				t.Errorf("BuildRepoQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPullRequestQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter PullRequestFilter
		want   string
	}{
		{"empty filter stays empty", PullRequestFilter{}, ""},
		{
			name: "entity qualifier appended",
			filter: PullRequestFilter{
				Scope:      Scope{Owner: []string{"golang"}, Repo: []string{"go"}},
				Discussion: Discussion{State: "open"},
			},
			want: "repo:golang/go is:open is:pr",
		},
		{
			name: "labels with spaces and no assignee",
			filter: PullRequestFilter{
				Discussion: Discussion{
					Label:      []string{"bug", "good first issue"},
					Milestone:  "v1.0 beta",
					NoAssignee: true,
				},
			},
			want: `label:bug label:"good first issue" milestone:"v1.0 beta" no:assignee is:pr`,
		},
		{
			name: "review and merge state",
			filter: PullRequestFilter{
				Discussion:      Discussion{Author: "octocat"},
				Base:            "main",
				ReviewRequested: "hubot",
				Merged:          ptr(true),
				Draft:           ptr(false),
			},
			want: "author:octocat base:main review-requested:hubot is:merged draft:false is:pr",
		},
		{
			name:   "unmerged",
			filter: PullRequestFilter{Merged: ptr(false)},
			want:   "is:unmerged is:pr",
		},
		{
			name:   "false no-flags add nothing",
			filter: PullRequestFilter{Text: Text{Terms: []string{"fix"}}, Discussion: Discussion{NoAssignee: false}},
			want:   "fix is:pr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildPullRequestQuery(tt.filter); got != tt.want {
				t.Errorf("BuildPullRequestQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildIssueQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter IssueFilter
		want   string
	}{
		{"empty filter stays empty", IssueFilter{}, ""},
		{
			name: "missing fields",
			filter: IssueFilter{
				Scope:      Scope{Owner: []string{"kubernetes"}},
				Discussion: Discussion{NoLabel: true, NoMilestone: true},
				NoProject:  true,
			},
			want: "user:kubernetes no:label no:milestone no:project is:issue",
		},
		{
			name: "people and dates",
			filter: IssueFilter{
				Text:       Text{Terms: []string{"panic"}},
				Discussion: Discussion{State: "closed", Mentions: "me", Created: "2024-01-01..2024-02-01", Match: []string{"title"}},
			},
			want: "panic is:closed mentions:me created:2024-01-01..2024-02-01 in:title is:issue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildIssueQuery(tt.filter); got != tt.want {
				t.Errorf("BuildIssueQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildCommitQuery(t *testing.T) {
	f := CommitFilter{
		Text:        Text{Terms: []string{"fix"}},
		Scope:       Scope{Owner: []string{"torvalds"}, Repo: []string{"linux"}},
		Author:      "torvalds",
		AuthorEmail: "torvalds@linux-foundation.org",
		AuthorDate:  ">2024-01-01",
		Merge:       ptr(false),
	}
	want := "fix repo:torvalds/linux author:torvalds author-email:torvalds@linux-foundation.org author-date:>2024-01-01 merge:false"
	if got := BuildCommitQuery(f); got != want {
		t.Errorf("BuildCommitQuery() = %q, want %q", got, want)
	}
	if got := BuildCommitQuery(CommitFilter{}); got != "" {
		t.Errorf("empty commit filter = %q, want empty", got)
	}
}

func TestBuilders_Idempotent(t *testing.T) {
	pr := PullRequestFilter{
		Text:       Text{AnyOf: []string{"a", "b"}},
		Scope:      Scope{Owner: []string{"o1", "o2"}, Repo: []string{"r"}},
		Discussion: Discussion{Label: []string{"x y"}},
	}
	first := BuildPullRequestQuery(pr)
	for i := 0; i < 5; i++ {
		if got := BuildPullRequestQuery(pr); got != first {
			t.Fatalf("call %d = %q, want %q", i, got, first)
		}
	}
	if len(pr.Label) != 1 || pr.Label[0] != "x y" {
		t.Error("builder must not mutate its filter")
	}
}

func TestBuilders_EntityQualifiersNeverCross(t *testing.T) {
	d := Discussion{State: "open"}
	pr := BuildPullRequestQuery(PullRequestFilter{Discussion: d})
	issue := BuildIssueQuery(IssueFilter{Discussion: d})

	if pr != "is:open is:pr" {
		t.Errorf("pr query = %q", pr)
	}
	if issue != "is:open is:issue" {
		t.Errorf("issue query = %q", issue)
	}
}

func TestCheck(t *testing.T) {
	if err := Check(""); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Check(\"\") = %v, want ErrEmptyQuery", err)
	}
	if err := Check("   "); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Check(blank) = %v, want ErrEmptyQuery", err)
	}
	if err := Check(BuildIssueQuery(IssueFilter{})); !errors.Is(err, ErrEmptyQuery) {
		t.Error("empty issue filter must be rejected")
	}
	if err := Check("repo:a/b"); err != nil {
		t.Errorf("Check(non-empty) = %v", err)
	}
}

func ExampleBuildPullRequestQuery() {
	q := BuildPullRequestQuery(PullRequestFilter{
		Scope:      Scope{Owner: []string{"facebook"}, Repo: []string{"react"}},
		Discussion: Discussion{State: "open", Label: []string{"good first issue"}},
	})
	fmt.Println(q)
	// Output:
	// repo:facebook/react is:open label:"good first issue" is:pr
}

func ExampleBuildCodeQuery() {
	q := BuildCodeQuery(CodeFilter{
		Text:     Text{Terms: []string{"useState"}},
		Scope:    Scope{Owner: []string{"facebook"}},
		Language: []string{"typescript"},
	})
	fmt.Println(q)
	// Output:
	// useState user:facebook language:typescript
}
