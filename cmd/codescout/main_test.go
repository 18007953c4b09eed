package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/codescout/config"
	"github.com/jonwraymond/codescout/research"
)

const notes = "alpha\nbeta\ngamma\ndelta\n"

type fakeGitHub struct {
	calls   atomic.Int32
	lastQ   atomic.Value
	lastTok atomic.Value
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, string) {
	t.Helper()
	fake := &fakeGitHub{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/code", func(w http.ResponseWriter, r *http.Request) {
		fake.lastQ.Store(r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"total_count":1,"items":[{"name":"main.go","path":"cmd/main.go","sha":"abc","repository":{"full_name":"acme/tool"}}]}`))
	})
	mux.HandleFunc("GET /repos/acme/tool/contents/notes.txt", func(w http.ResponseWriter, r *http.Request) {
		b, _ := json.Marshal(map[string]any{
			"type": "file", "encoding": "base64", "name": "notes.txt", "path": "notes.txt",
			"sha": "f00d", "size": len(notes), "content": base64.StdEncoding.EncodeToString([]byte(notes)),
		})
		_, _ = w.Write(b)
	})
	mux.HandleFunc("GET /repos/acme/tool/contents/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"dir","name":"cmd","path":"cmd"},{"type":"file","name":"go.mod","path":"go.mod"}]`))
	})
	mux.HandleFunc("GET /repos/acme/tool/contents/cmd", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"file","name":"main.go","path":"cmd/main.go"}]`))
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.calls.Add(1)
		fake.lastTok.Store(r.Header.Get("Authorization"))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "codescout.yaml")
	cfg := "github:\n  base_url: " + srv.URL + "/\n  search_rate: 100\n  search_burst: 100\n" +
		"content:\n  minify: false\n" +
		"observe:\n  logging:\n    enabled: false\n" +
		"health:\n  max_heap_bytes: 1099511627776\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return fake, path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	fake, cfg := newFakeGitHub(t)

	out, err := runCLI(t, "--config", cfg, "--anonymous", "search", "code", "token",
		"--repo", "acme/tool", "--language", "go", "--filter", "{path: cmd}")
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	q, _ := fake.lastQ.Load().(string)
	for _, want := range []string{"token", "repo:acme/tool", "language:go", "path:cmd"} {
		if !strings.Contains(q, want) {
			t.Errorf("q = %q, want %q", q, want)
		}
	}

	var resp research.SearchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not a search response: %v\n%s", err, out)
	}
	if resp.Kind != research.KindCode || resp.Total != 1 || len(resp.Code) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchCommand_RejectsFieldsTheKindLacks(t *testing.T) {
	fake, cfg := newFakeGitHub(t)

	_, err := runCLI(t, "--config", cfg, "--anonymous", "search", "repos", "cli", "--repo", "acme/tool")
	if err == nil || !strings.Contains(err.Error(), "repositories filter") {
		t.Errorf("err = %v, want a repositories filter error", err)
	}
	_, err = runCLI(t, "--config", cfg, "--anonymous", "search", "gists", "x")
	if !errors.Is(err, research.ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
	if got := fake.calls.Load(); got != 0 {
		t.Errorf("calls = %d, want no request for rejected searches", got)
	}
}

func TestFetchCommand(t *testing.T) {
	_, cfg := newFakeGitHub(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"full", nil, notes},
		{"line range from flags", []string{"--start-line", "2", "--end-line", "3"}, "beta\ngamma\n"},
		{"pattern without context", []string{"--pattern", "delta", "--context", "0"}, "delta\n"},
		{"byte range", []string{"--start-byte", "6", "--end-byte", "10"}, "beta\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", cfg, "--anonymous", "fetch", "acme/tool", "notes.txt", "--raw"}, tt.args...)
			out, err := runCLI(t, args...)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if out != tt.want {
				t.Errorf("out = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestFetchCommand_BadRepository(t *testing.T) {
	for _, repo := range []string{"acme", "/tool", "acme/", "acme/tool/x"} {
		if _, err := runCLI(t, "--anonymous", "fetch", repo, "README.md"); err == nil {
			t.Errorf("fetch %q: want error", repo)
		}
	}
}

func TestTreeCommand_Plain(t *testing.T) {
	_, cfg := newFakeGitHub(t)

	out, err := runCLI(t, "--config", cfg, "--anonymous", "tree", "acme/tool", "--depth", "2", "--plain")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	want := "cmd/\n  main.go\ngo.mod\n\n1 directories, 2 files\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestTokenFromEnvironment(t *testing.T) {
	fake, cfg := newFakeGitHub(t)
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")
	t.Setenv("GH_TOKEN", "")

	if _, err := runCLI(t, "--config", cfg, "fetch", "acme/tool", "notes.txt"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got, _ := fake.lastTok.Load().(string); !strings.HasSuffix(got, "ghp_fromenv") {
		t.Errorf("Authorization = %q, want the environment token", got)
	}
}

func TestConfigCommand(t *testing.T) {
	_, cfg := newFakeGitHub(t)

	out, err := runCLI(t, "--config", cfg, "config", "validate")
	if err != nil || !strings.Contains(out, "valid") {
		t.Errorf("validate = %q, %v", out, err)
	}

	out, err = runCLI(t, "--config", cfg, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "search_rate: 100") || !strings.Contains(out, "minify: false") {
		t.Errorf("show = %s", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("cache:\n  max_entry: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "--config", bad, "config", "validate"); !errors.Is(err, config.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
	if _, err := runCLI(t, "--log-level", "loud", "config", "validate"); err == nil {
		t.Error("want error for unknown log level")
	}
}
