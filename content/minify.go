package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja/parser"
	"golang.org/x/net/html"
)

// Minify shrinks text written in lang. Comments and blank lines are removed;
// string literals are copied verbatim. On error the caller keeps the input.
func Minify(lang Language, text string) (string, error) {
	switch lang.Family {
	case FamilyCStyle, FamilyCSS, FamilyHash:
		stripped, protected, err := stripComments(lang, text)
		if err != nil {
			return "", err
		}
		out := tidyLines(stripped, lang.Indented, protected)
		if lang.ScriptCheck {
			if err := checkScript(text, out); err != nil {
				return "", err
			}
		}
		return out, nil
	case FamilyJSON:
		return compactJSON(text)
	case FamilyHTML:
		return minifyHTML(text)
	default:
		return collapseText(text), nil
	}
}

// stripComments removes comments outside string literals. Lines that begin or
// end inside a multi-line string are reported in protected so they are kept
// byte for byte.
func stripComments(lang Language, src string) (string, map[int]bool, error) {
	lineComment, block := "//", true
	switch lang.Family {
	case FamilyCSS:
		lineComment = ""
	case FamilyHash:
		lineComment, block = "#", false
	}

	var b strings.Builder
	b.Grow(len(src))
	protected := make(map[int]bool)
	line := 0

	newline := func() {
		b.WriteByte('\n')
		line++
	}
	literal := func(s string) {
		for i := 0; i < len(s); i++ {
			if s[i] == '\n' {
				protected[line] = true
				newline()
				protected[line] = true
				continue
			}
			b.WriteByte(s[i])
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		rest := src[i:]
		switch {
		case c == '\n':
			newline()
			i++
		case block && strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return "", nil, ErrUnterminated
			}
			body := rest[2 : 2+end]
			if n := strings.Count(body, "\n"); n > 0 {
				for ; n > 0; n-- {
					newline()
				}
			} else {
				b.WriteByte(' ')
			}
			i += end + 4
		case lineComment != "" && strings.HasPrefix(rest, lineComment) &&
			(lineComment != "#" || hashComment(src, i)):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				i = len(src)
			} else {
				i += end
			}
		case lang.TripleQuote && (strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`)):
			end := strings.Index(rest[3:], rest[:3])
			if end < 0 {
				return "", nil, ErrUnterminated
			}
			literal(rest[:end+6])
			i += end + 6
		case c == '`' && lang.Backtick:
			n := closing(rest, '`', lang.Name != "go", true)
			if n < 0 {
				return "", nil, ErrUnterminated
			}
			literal(rest[:n])
			i += n
		case c == '"' || c == '\'':
			n := closing(rest, c, true, false)
			if n < 0 {
				n = 1
			}
			b.WriteString(rest[:n])
			i += n
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), protected, nil
}

// closing returns the length of the quoted literal at the start of s, or -1
// when it does not close. Single-line literals stop at a newline.
func closing(s string, quote byte, escapes, multiline bool) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if escapes {
				i++
			}
		case '\n':
			if !multiline {
				return -1
			}
		case quote:
			return i + 1
		}
	}
	return -1
}

// hashComment reports whether the # at i starts a comment: it must begin a
// word, and a shebang on the first line is kept.
func hashComment(src string, i int) bool {
	if i == 0 {
		return !strings.HasPrefix(src, "#!")
	}
	switch src[i-1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func tidyLines(s string, indented bool, protected map[int]bool) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for i, l := range lines {
		if protected[i] {
			out = append(out, l)
			continue
		}
		l = strings.TrimRight(l, " \t\r")
		if !indented {
			l = strings.TrimLeft(l, " \t")
		}
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// checkScript rejects minified JavaScript that no longer parses. Sources the
// parser cannot read to begin with (modules, newer syntax) are not checked.
func checkScript(original, minified string) error {
	if _, err := parser.ParseFile(nil, "", original, 0); err != nil {
		return nil
	}
	if _, err := parser.ParseFile(nil, "", minified, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return nil
}

func compactJSON(text string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return buf.String(), nil
}

// verbatimTags hold text whose whitespace is significant.
var verbatimTags = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

func minifyHTML(text string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	b.Grow(len(text))
	verbatim := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.TrimSpace(b.String()), nil
			}
			return "", fmt.Errorf("%w: %v", ErrMalformed, z.Err())
		case html.CommentToken:
		case html.TextToken:
			if verbatim > 0 {
				b.Write(z.Raw())
			} else {
				b.WriteString(collapseSpace(string(z.Raw())))
			}
		case html.StartTagToken:
			b.Write(z.Raw())
			if name, _ := z.TagName(); verbatimTags[string(name)] {
				verbatim++
			}
		case html.EndTagToken:
			b.Write(z.Raw())
			if name, _ := z.TagName(); verbatimTags[string(name)] && verbatim > 0 {
				verbatim--
			}
		default:
			b.Write(z.Raw())
		}
	}
}

// collapseSpace folds whitespace runs to one space. Whitespace-only text that
// spans lines is dropped.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if strings.ContainsRune(s, '\n') || s == "" {
			return ""
		}
		return " "
	}
	var b strings.Builder
	if isSpace(s[0]) {
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(fields, " "))
	if isSpace(s[len(s)-1]) {
		b.WriteByte(' ')
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// collapseText trims trailing whitespace and folds runs of blank lines into
// one, keeping indentation.
func collapseText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
