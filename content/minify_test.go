package content

import (
	"errors"
	"testing"
)

func TestMinify(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		input string
		want  string
	}{
		{
			name: "go keeps strings and raw literals",
			path: "main.go",
			input: "package main\n\n// comment\nimport \"fmt\" // trailing\n\n/* block\ncomment */\nfunc main() {\n" +
				"\ts := \"http://x // not a comment\"\n\tr := `raw // kept\n  indented`\n\tfmt.Println(s, r)\n}\n",
			want: "package main\nimport \"fmt\"\nfunc main() {\ns := \"http://x // not a comment\"\n" +
				"\tr := `raw // kept\n  indented`\nfmt.Println(s, r)\n}",
		},
		{
			name:  "javascript",
			path:  "lib/add.js",
			input: "// header\nfunction add(a, b) {\n  return a + b; /* sum */\n}\n",
			want:  "function add(a, b) {\nreturn a + b;\n}",
		},
		{
			name:  "css",
			path:  "site.css",
			input: "a { color: red; } /* x */\n\n b {}\n",
			want:  "a { color: red; }\nb {}",
		},
		{
			name:  "python keeps indentation and docstrings",
			path:  "app.py",
			input: "#!/usr/bin/env python3\n# comment\ndef f(x):  # trailing\n    \"\"\"Doc # not comment\n    more\"\"\"\n    return x  # done\n\n\nprint(f(1))\n",
			want:  "#!/usr/bin/env python3\ndef f(x):\n    \"\"\"Doc # not comment\n    more\"\"\"\n    return x\nprint(f(1))",
		},
		{
			name:  "shell hash inside words",
			path:  "run.sh",
			input: "echo $# \"a#b\" # count\n",
			want:  "echo $# \"a#b\"",
		},
		{
			name:  "yaml",
			path:  "ci.yml",
			input: "jobs:\n  # build job\n  build:\n    runs-on: ubuntu-latest # pinned\n",
			want:  "jobs:\n  build:\n    runs-on: ubuntu-latest",
		},
		{
			name:  "json",
			path:  "package.json",
			input: "{\n  \"a\": [1, 2],\n  \"b\": \"x y\"\n}\n",
			want:  `{"a":[1,2],"b":"x y"}`,
		},
		{
			name: "html",
			path: "index.html",
			input: "<html>\n  <!-- note -->\n  <body>\n    <p>Hello   <b>world</b></p>\n" +
				"    <pre>  keep\n   this</pre>\n  </body>\n</html>\n",
			want: "<html><body><p>Hello <b>world</b></p><pre>  keep\n   this</pre></body></html>",
		},
		{
			name:  "markdown",
			path:  "README.md",
			input: "# Title\n\n\n\nText   \n    code\n\n",
			want:  "# Title\n\nText\n    code",
		},
		{
			name:  "unknown extension is text",
			path:  "LICENSE",
			input: "line one  \n\n\n\nline two\n",
			want:  "line one\n\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Minify(LanguageFor(tt.path), tt.input)
			if err != nil {
				t.Fatalf("Minify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Minify() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestMinify_Errors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		input string
		want  error
	}{
		{"unterminated block comment", "a.c", "int x; /* open", ErrUnterminated},
		{"unterminated raw string", "a.go", "var s = `open", ErrUnterminated},
		{"unterminated docstring", "a.py", "\"\"\"open", ErrUnterminated},
		{"malformed json", "a.json", "{", ErrMalformed},
		// The lexer reads // inside the regex literal as a comment.
		{"javascript regex literal", "re.js", "var re = /\\/\\//;\nvar x = 1;\n", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Minify(LanguageFor(tt.path), tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Minify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMinify_ModuleSource(t *testing.T) {
	got, err := Minify(LanguageFor("mod.mjs"), "import x from 'y'; // load\n")
	if err != nil {
		t.Fatalf("Minify() error = %v", err)
	}
	if got != "import x from 'y';" {
		t.Errorf("Minify() = %q", got)
	}
}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		path     string
		name     string
		family   Family
		indented bool
	}{
		{"src/main.go", "go", FamilyCStyle, false},
		{"web/App.TSX", "typescript", FamilyCStyle, false},
		{"tool.py", "python", FamilyHash, true},
		{"build/Makefile", "make", FamilyHash, true},
		{"Dockerfile", "dockerfile", FamilyHash, false},
		{"data.json", "json", FamilyJSON, false},
		{"docs/index.htm", "html", FamilyHTML, false},
		{"notes.md", "markdown", FamilyText, true},
		{"", "text", FamilyText, true},
		{"archive.tar.gz", "text", FamilyText, true},
	}
	for _, tt := range tests {
		got := LanguageFor(tt.path)
		if got.Name != tt.name || got.Family != tt.family || got.Indented != tt.indented {
			t.Errorf("LanguageFor(%q) = %+v", tt.path, got)
		}
	}
}
