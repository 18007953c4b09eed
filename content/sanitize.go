package content

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Categories of sanitizer findings. The redaction marker for a category is
// "[REDACTED-<category>]".
const (
	CategoryGitHubToken      = "GITHUB-TOKEN"
	CategoryAWSKey           = "AWS-KEY"
	CategoryPrivateKey       = "PRIVATE-KEY"
	CategorySlackToken       = "SLACK-TOKEN"
	CategoryStripeKey        = "STRIPE-KEY"
	CategoryGoogleKey        = "GOOGLE-API-KEY"
	CategoryOpenAIKey        = "OPENAI-KEY"
	CategoryJWT              = "JWT"
	CategoryConnectionString = "CONNECTION-STRING"
	CategoryPassword         = "PASSWORD"
	CategoryAPIKey           = "API-KEY"
	CategoryPromptInjection  = "PROMPT-INJECTION"
	CategoryHiddenCharacters = "HIDDEN-CHARACTERS"
	CategoryScript           = "SCRIPT"

	// CategoryInconclusive marks a sanitizer run that could not complete;
	// the text is returned unscanned.
	CategoryInconclusive = "INCONCLUSIVE"

	// CategoryTruncated marks a fragment cut at the configured size cap.
	CategoryTruncated = "TRUNCATED"
)

// Marker returns the in-place replacement for a redacted match.
func Marker(category string) string {
	return "[REDACTED-" + category + "]"
}

// Warning reports what happened to one fragment.
type Warning struct {
	Category string `json:"category"`
	Path     string `json:"path,omitempty"`
	Count    int    `json:"count,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Category + ": " + w.Message
	}
	return w.Path + ": " + w.Category + ": " + w.Message
}

// Detector finds one category of sensitive content.
type Detector struct {
	Category string
	Pattern  *regexp.Regexp

	// Group selects the submatch that is redacted; zero redacts the whole
	// match. A value group leaves assignment keys like "password=" in place.
	Group int

	// Confirm, when set, must accept the redacted text for it to count.
	Confirm func(match string) bool

	// MarkupOnly restricts the detector to Markdown and HTML sources.
	MarkupOnly bool
}

// DefaultDetectors returns the built-in detectors in evaluation order.
// Vendor-specific patterns run before the generic assignment patterns.
func DefaultDetectors() []Detector {
	return []Detector{
		{Category: CategoryPrivateKey, Pattern: regexp.MustCompile(`(?s)-----BEGIN [A-Z0-9 ]*PRIVATE KEY-----.*?-----END [A-Z0-9 ]*PRIVATE KEY-----`)},
		{Category: CategoryGitHubToken, Pattern: regexp.MustCompile(`\b(?:gh[pousr]_[A-Za-z0-9]{36,255}|github_pat_[A-Za-z0-9_]{22,255})\b`)},
		{Category: CategoryAWSKey, Pattern: regexp.MustCompile(`\b(?:AKIA|ASIA|AGPA|AIDA|AROA)[0-9A-Z]{16}\b`)},
		{Category: CategoryAWSKey, Pattern: regexp.MustCompile(`(?i)\baws_secret_access_key["']?\s*[:=]{1,2}\s*["']?([A-Za-z0-9/+=]{40})`), Group: 1},
		{Category: CategorySlackToken, Pattern: regexp.MustCompile(`\bxox[abposr]-[A-Za-z0-9-]{10,}`)},
		{Category: CategoryStripeKey, Pattern: regexp.MustCompile(`\b(?:sk|rk|pk)_(?:live|test)_[A-Za-z0-9]{16,}\b`)},
		{Category: CategoryGoogleKey, Pattern: regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}`)},
		{Category: CategoryOpenAIKey, Pattern: regexp.MustCompile(`\bsk-(?:proj-|ant-)?[A-Za-z0-9_-]{20,}`)},
		{Category: CategoryJWT, Pattern: regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`), Confirm: isJWT},
		{Category: CategoryConnectionString, Pattern: regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s:/@"'\[]+:([^\s@/"'\[]+)@`), Group: 1},
		{Category: CategoryPassword, Pattern: regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)["']?\s*[:=]{1,2}\s*["']?([^\s"'\[,;][^\s"',;]{3,})`), Group: 1},
		{Category: CategoryAPIKey, Pattern: regexp.MustCompile(`(?i)\b(?:api[_-]?key|api[_-]?secret|access[_-]?token|auth[_-]?token|client[_-]?secret|secret[_-]?key)["']?\s*[:=]{1,2}\s*["']?([A-Za-z0-9_\-./+=]{8,})`), Group: 1},
		{Category: CategoryPromptInjection, Pattern: regexp.MustCompile(`(?i)\b(?:(?:ignore|disregard|forget)\s+(?:all\s+|any\s+)?(?:the\s+)?(?:previous|prior|above|earlier)\s+(?:instructions|prompts?|rules|context)|you\s+are\s+now\s+(?:in\s+)?(?:developer|dan|jailbreak|god)\s+mode|(?:reveal|print|show)\s+(?:me\s+)?(?:your|the)\s+system\s+prompt|new\s+system\s+prompt\s*:)`)},
		{Category: CategoryHiddenCharacters, Pattern: regexp.MustCompile("[\u200b-\u200f\u202a-\u202e\u2060-\u2064\u2066-\u2069\ufeff]+")},
		{Category: CategoryScript, Pattern: regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>|<script\b[^>]*>`), MarkupOnly: true},
	}
}

var jwtParser = jwt.NewParser()

// isJWT reports whether s decodes as a JWT with a known signing method.
// Signatures are not verified.
func isJWT(s string) bool {
	tok, _, err := jwtParser.ParseUnverified(s, jwt.MapClaims{})
	return err == nil && tok.Method != nil
}

// Sanitizer redacts secrets, prompt-injection phrases, and hidden markers.
//
// Contract:
// - Concurrency: safe for concurrent use; detectors are read only.
// - Errors: never fails. A panic in a detector returns the input unchanged
//   with a CategoryInconclusive warning.
type Sanitizer struct {
	detectors []Detector
}

// NewSanitizer creates a sanitizer. With no detectors the defaults are used.
func NewSanitizer(detectors ...Detector) *Sanitizer {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Sanitizer{detectors: detectors}
}

// Sanitize scans text from the file at p and returns the redacted text with
// at most one warning per category.
func (s *Sanitizer) Sanitize(p, text string) (out string, warnings []Warning) {
	defer func() {
		if r := recover(); r != nil {
			out = text
			warnings = []Warning{{
				Category: CategoryInconclusive,
				Path:     p,
				Message:  fmt.Sprintf("sanitization inconclusive: %v", r),
			}}
		}
	}()

	markup := LanguageFor(p).Markup
	counts := make(map[string]int)
	out = text
	for _, d := range s.detectors {
		if d.MarkupOnly && !markup {
			continue
		}
		var n int
		out, n = d.redact(out)
		if n > 0 {
			counts[d.Category] += n
		}
	}

	return out, summarize(p, counts)
}

func (d Detector) redact(text string) (string, int) {
	matches := d.Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	last, n := 0, 0
	for _, m := range matches {
		if 2*d.Group+1 >= len(m) {
			continue
		}
		start, end := m[2*d.Group], m[2*d.Group+1]
		if start < 0 {
			continue
		}
		if d.Confirm != nil && !d.Confirm(text[start:end]) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(Marker(d.Category))
		last = end
		n++
	}
	if n == 0 {
		return text, 0
	}
	b.WriteString(text[last:])
	return b.String(), n
}

func summarize(p string, counts map[string]int) []Warning {
	if len(counts) == 0 {
		return nil
	}
	out := make([]Warning, 0, len(counts))
	for cat, n := range counts {
		out = append(out, Warning{
			Category: cat,
			Path:     p,
			Count:    n,
			Message:  fmt.Sprintf("%d match(es) redacted", n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
