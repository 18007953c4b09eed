package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonwraymond/codescout/cache"
	"github.com/jonwraymond/codescout/content"
	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/observe"
)

// Mode selects which part of a file FetchContent returns.
type Mode string

const (
	ModeFull         Mode = "full"
	ModeLineRange    Mode = "line-range"
	ModePatternMatch Mode = "pattern-match"
	ModeByteRange    Mode = "byte-range"
)

// Pattern-match defaults.
const (
	DefaultContextLines = 3
	DefaultMaxMatches   = 10
)

// matchSeparator is placed between non-adjacent pattern-match windows.
const matchSeparator = "..."

// FetchRequest names a file and the part of it to return.
type FetchRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Path  string `json:"path"`
	Ref   string `json:"ref,omitempty"`

	// Mode defaults to ModeFull.
	Mode Mode `json:"mode,omitempty"`

	// StartLine and EndLine bound ModeLineRange, 1-based and inclusive.
	// EndLine zero means the last line.
	StartLine int `json:"start_line,omitempty"`
	EndLine   int `json:"end_line,omitempty"`

	// Pattern is matched per line in ModePatternMatch, as a literal unless
	// Regex is set.
	Pattern string `json:"pattern,omitempty"`
	Regex   bool   `json:"regex,omitempty"`

	// IgnoreCase makes Pattern case-insensitive.
	IgnoreCase bool `json:"ignore_case,omitempty"`

	// ContextLines around each match.
	// Default: 3; negative means none
	ContextLines int `json:"context_lines,omitempty"`

	// MaxMatches stops the scan.
	// Default: 10
	MaxMatches int `json:"max_matches,omitempty"`

	// StartByte and EndByte bound ModeByteRange as a half-open interval.
	// EndByte zero means the end of the file. Both snap to rune boundaries.
	StartByte int `json:"start_byte,omitempty"`
	EndByte   int `json:"end_byte,omitempty"`

	Token     string `json:"-"`
	RequestID string `json:"-"`
}

func (r FetchRequest) location() githubapi.Location {
	return githubapi.Location{Owner: r.Owner, Repo: r.Repo, Path: strings.Trim(r.Path, "/"), Ref: r.Ref}
}

// FetchResult is the processed part of a file.
type FetchResult struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	Ref        string `json:"ref,omitempty"`
	SHA        string `json:"sha"`
	URL        string `json:"url"`
	Size       int    `json:"size"`
	Mode       Mode   `json:"mode"`

	// TotalLines is the line count of the whole file.
	TotalLines int `json:"total_lines"`

	// StartLine and EndLine are the extracted lines for ModeLineRange,
	// and the span from first to last window for ModePatternMatch.
	StartLine int `json:"start_line,omitempty"`
	EndLine   int `json:"end_line,omitempty"`

	// StartByte and EndByte are the snapped range for ModeByteRange.
	StartByte int `json:"start_byte,omitempty"`
	EndByte   int `json:"end_byte,omitempty"`

	// Matches counts matching lines in ModePatternMatch.
	Matches int `json:"matches,omitempty"`

	content.ProcessedFragment

	Cached bool `json:"cached"`
}

type fileKey struct {
	Location   githubapi.Location `json:"location"`
	Credential string             `json:"credential"`
}

// FetchContent fetches a file, cuts the requested part and runs it through
// the content processor. The whole file is cached, so every mode over the
// same file and ref shares one API call.
func (o *Orchestrator) FetchContent(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	ctx, err := o.begin(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = ModeFull
	}

	var match *regexp.Regexp
	switch req.Mode {
	case ModeFull, ModeLineRange, ModeByteRange:
	case ModePatternMatch:
		if match, err = compilePattern(req); err != nil {
			return nil, invalid(err.Error(), err)
		}
	default:
		err := fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
		return nil, invalid(err.Error(), err)
	}

	loc := req.location()
	meta := observe.OperationMeta{Kind: observe.KindFetch, Name: string(req.Mode), Repository: loc.Repository()}
	return observe.Observe(ctx, o.obs, meta, func(ctx context.Context) (*FetchResult, error) {
		key := fileKey{Location: loc, Credential: githubapi.Fingerprint(req.Token)}
		file, hit, err := cachedJSON(ctx, o, cache.PrefixFileContent, key, func(ctx context.Context) (*githubapi.File, error) {
			return o.client.GetFile(ctx, req.Token, loc)
		})
		if err != nil {
			return nil, err
		}

		res := &FetchResult{
			Repository: file.Repository,
			Path:       file.Path,
			Ref:        file.Ref,
			SHA:        file.SHA,
			URL:        file.URL,
			Size:       file.Size,
			Mode:       req.Mode,
			TotalLines: countLines(file.Content),
			Cached:     hit,
		}

		text := file.Content
		switch req.Mode {
		case ModeLineRange:
			text, res.StartLine, res.EndLine, err = lineRange(file.Content, req.StartLine, req.EndLine)
		case ModeByteRange:
			text, res.StartByte, res.EndByte, err = byteRange(file.Content, req.StartByte, req.EndByte)
		case ModePatternMatch:
			w := patternMatch(file.Content, match, req.ContextLines, req.MaxMatches)
			text, res.StartLine, res.EndLine, res.Matches = w.text, w.first, w.last, w.matches
		}
		if err != nil {
			return nil, invalid(err.Error(), err)
		}

		res.ProcessedFragment = o.processor.Process(ctx, file.Repository+"/"+file.Path, text)
		return res, nil
	})
}

func compilePattern(req FetchRequest) (*regexp.Regexp, error) {
	if req.Pattern == "" {
		return nil, fmt.Errorf("%w: pattern is required", ErrInvalidPattern)
	}
	expr := req.Pattern
	if !req.Regex {
		expr = regexp.QuoteMeta(expr)
	}
	if req.IgnoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}

// splitLines splits on \n. A trailing newline does not start a new line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func countLines(s string) int {
	return len(splitLines(s))
}

func lineRange(s string, start, end int) (string, int, int, error) {
	lines := splitLines(s)
	if start < 1 {
		start = 1
	}
	if end == 0 || end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) || end < start {
		return "", 0, 0, fmt.Errorf("%w: lines %d-%d of a %d-line file", ErrInvalidRange, start, end, len(lines))
	}
	return strings.Join(lines[start-1:end], "\n"), start, end, nil
}

// byteRange returns s[start:end] with both ends moved inward to rune
// boundaries, so a rune split by the range is left out. end 0 means the end
// of s.
func byteRange(s string, start, end int) (string, int, int, error) {
	if end == 0 || end > len(s) {
		end = len(s)
	}
	if start < 0 || start > end {
		return "", 0, 0, fmt.Errorf("%w: bytes %d-%d of a %d-byte file", ErrInvalidRange, start, end, len(s))
	}
	for start < end && !utf8.RuneStart(s[start]) {
		start++
	}
	for end < len(s) && end > start && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[start:end], start, end, nil
}

type matchWindows struct {
	text        string
	first, last int
	matches     int
}

// patternMatch returns the matching lines with context. Overlapping or
// adjacent windows are merged; others are joined by matchSeparator. No match
// yields empty text.
func patternMatch(s string, re *regexp.Regexp, around, maxMatches int) matchWindows {
	switch {
	case around == 0:
		around = DefaultContextLines
	case around < 0:
		around = 0
	}
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}

	lines := splitLines(s)
	type window struct{ from, to int }
	var (
		windows []window
		out     matchWindows
	)
	for i, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		out.matches++
		w := window{from: max(i-around, 0), to: min(i+around, len(lines)-1)}
		if n := len(windows); n > 0 && w.from <= windows[n-1].to+1 {
			windows[n-1].to = w.to
		} else {
			windows = append(windows, w)
		}
		if out.matches == maxMatches {
			break
		}
	}
	if len(windows) == 0 {
		return out
	}

	parts := make([]string, len(windows))
	for i, w := range windows {
		parts[i] = strings.Join(lines[w.from:w.to+1], "\n")
	}
	out.text = strings.Join(parts, "\n"+matchSeparator+"\n")
	out.first = windows[0].from + 1
	out.last = windows[len(windows)-1].to + 1
	return out
}
