package research

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/jonwraymond/codescout/content"
	"github.com/jonwraymond/codescout/githubapi"
)

const tenLines = "one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\n"

func plainContent(c *Config) {
	cfg := content.DefaultConfig()
	cfg.Minify = false
	c.Content = &cfg
}

func TestFetchContent_Modes(t *testing.T) {
	o, fake := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/tool/contents/notes.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(fileResponse("notes.txt", tenLines)))
	}, plainContent)
	ctx := context.Background()
	base := FetchRequest{Owner: "acme", Repo: "tool", Path: "/notes.txt"}

	tests := []struct {
		name        string
		mutate      func(*FetchRequest)
		want        string
		start, end  int
		wantMatches int
	}{
		{"full", func(r *FetchRequest) {}, tenLines, 0, 0, 0},
		{"line range", func(r *FetchRequest) { r.Mode, r.StartLine, r.EndLine = ModeLineRange, 2, 4 }, "two\nthree\nfour", 2, 4, 0},
		{"line range to end", func(r *FetchRequest) { r.Mode, r.StartLine = ModeLineRange, 9 }, "nine\nten", 9, 10, 0},
		{"line range clamps", func(r *FetchRequest) { r.Mode, r.StartLine, r.EndLine = ModeLineRange, -3, 99 }, strings.TrimSuffix(tenLines, "\n"), 1, 10, 0},
		{"pattern", func(r *FetchRequest) { r.Mode, r.Pattern, r.ContextLines = ModePatternMatch, "five", 1 }, "four\nfive\nsix", 4, 6, 1},
		{"pattern merges windows", func(r *FetchRequest) {
			r.Mode, r.Pattern, r.Regex, r.ContextLines = ModePatternMatch, "^(two|four)$", true, 1
		}, "one\ntwo\nthree\nfour\nfive", 1, 5, 2},
		{"pattern separates windows", func(r *FetchRequest) {
			r.Mode, r.Pattern, r.Regex, r.ContextLines = ModePatternMatch, "^(one|ten)$", true, -1
		}, "one\n...\nten", 1, 10, 2},
		{"pattern ignores case", func(r *FetchRequest) {
			r.Mode, r.Pattern, r.IgnoreCase, r.ContextLines = ModePatternMatch, "SEVEN", true, -1
		}, "seven", 7, 7, 1},
		{"pattern stops at max", func(r *FetchRequest) {
			r.Mode, r.Pattern, r.Regex, r.ContextLines, r.MaxMatches = ModePatternMatch, "e", true, -1, 2
		}, "one\n...\nthree", 1, 3, 2},
		{"pattern without match", func(r *FetchRequest) { r.Mode, r.Pattern = ModePatternMatch, "eleven" }, "", 0, 0, 0},
		{"byte range", func(r *FetchRequest) { r.Mode, r.StartByte, r.EndByte = ModeByteRange, 4, 7 }, "two", 4, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			res, err := o.FetchContent(ctx, req)
			if err != nil {
				t.Fatalf("FetchContent: %v", err)
			}
			if res.Text != tt.want {
				t.Errorf("text = %q, want %q", res.Text, tt.want)
			}
			start, end := res.StartLine, res.EndLine
			if req.Mode == ModeByteRange {
				start, end = res.StartByte, res.EndByte
			}
			if start != tt.start || end != tt.end {
				t.Errorf("range = %d-%d, want %d-%d", start, end, tt.start, tt.end)
			}
			if res.Matches != tt.wantMatches {
				t.Errorf("matches = %d, want %d", res.Matches, tt.wantMatches)
			}
			if res.TotalLines != 10 || res.Repository != "acme/tool" {
				t.Errorf("result = %+v", res)
			}
		})
	}

	if got := fake.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want one fetch shared by every mode", got)
	}
}

func TestFetchContent_SanitizesBeforeMinifying(t *testing.T) {
	src := "package main\n\n// deploy key " + testToken + "\nvar key = \"" + testToken + "\"\n"
	o, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fileResponse("main.go", src)))
	})

	res, err := o.FetchContent(context.Background(), FetchRequest{Owner: "acme", Repo: "tool", Path: "main.go"})
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}
	if strings.Contains(res.Text, testToken) || strings.Contains(res.Text, "deploy key") {
		t.Errorf("text = %q, want token redacted and comment stripped", res.Text)
	}
	if !strings.Contains(res.Text, content.Marker(content.CategoryGitHubToken)) || !res.Minified {
		t.Errorf("text = %q minified = %v", res.Text, res.Minified)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Count != 2 {
		t.Errorf("warnings = %+v, want one GitHub token warning counting both matches", res.Warnings)
	}
}

func TestFetchContent_Errors(t *testing.T) {
	o, fake := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing.go") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_, _ = w.Write([]byte(fileResponse("notes.txt", tenLines)))
	})
	ctx := context.Background()
	base := FetchRequest{Owner: "acme", Repo: "tool", Path: "notes.txt"}

	tests := []struct {
		name   string
		mutate func(*FetchRequest)
		want   error
	}{
		{"unknown mode", func(r *FetchRequest) { r.Mode = "tail" }, ErrUnknownMode},
		{"empty pattern", func(r *FetchRequest) { r.Mode = ModePatternMatch }, ErrInvalidPattern},
		{"bad regex", func(r *FetchRequest) { r.Mode, r.Pattern, r.Regex = ModePatternMatch, "(", true }, ErrInvalidPattern},
		{"start past end of file", func(r *FetchRequest) { r.Mode, r.StartLine = ModeLineRange, 11 }, ErrInvalidRange},
		{"reversed lines", func(r *FetchRequest) { r.Mode, r.StartLine, r.EndLine = ModeLineRange, 5, 2 }, ErrInvalidRange},
		{"negative byte", func(r *FetchRequest) { r.Mode, r.StartByte = ModeByteRange, -1 }, ErrInvalidRange},
		{"missing repo", func(r *FetchRequest) { r.Repo = "" }, githubapi.ErrInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := o.FetchContent(ctx, req)
			if !errors.Is(err, tt.want) || !errors.Is(err, githubapi.ErrInvalidQuery) {
				t.Errorf("err = %v, want %v as invalid query", err, tt.want)
			}
		})
	}

	_, err := o.FetchContent(ctx, FetchRequest{Owner: "acme", Repo: "tool", Path: "missing.go"})
	if !errors.Is(err, githubapi.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
	if got := fake.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2 (notes.txt once, missing.go once)", got)
	}
}

func TestByteRange_DropsSplitRunes(t *testing.T) {
	s := "aé€b" // a(1) é(2) €(3) b(1)
	tests := []struct {
		start, end int
		want       string
	}{
		{0, 0, s},
		{0, 2, "a"},
		{2, 6, "€"},
		{1, 100, "é€b"},
		{3, 4, ""},
	}
	for _, tt := range tests {
		got, _, _, err := byteRange(s, tt.start, tt.end)
		if err != nil {
			t.Fatalf("byteRange(%d, %d): %v", tt.start, tt.end, err)
		}
		if got != tt.want {
			t.Errorf("byteRange(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestPatternMatch_AdjacentWindowsMerge(t *testing.T) {
	w := patternMatch(tenLines, regexp.MustCompile("^(two|five)$"), 1, 0)
	if w.text != "one\ntwo\nthree\nfour\nfive\nsix" || w.matches != 2 {
		t.Errorf("windows = %+v", w)
	}
}

func TestSplitLines(t *testing.T) {
	for in, want := range map[string]int{"": 0, "a": 1, "a\n": 1, "a\nb": 2, "a\n\n": 2} {
		if got := countLines(in); got != want {
			t.Errorf("countLines(%q) = %d, want %d", in, got, want)
		}
	}
}
