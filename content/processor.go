package content

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jonwraymond/codescout/observe"
)

// DefaultMaxFragmentBytes caps the size of one processed fragment.
const DefaultMaxFragmentBytes = 1 << 20

// Config configures a Processor.
type Config struct {
	// Sanitize enables secret and prompt-injection redaction.
	// Default (DefaultConfig): true
	Sanitize bool `yaml:"sanitize"`

	// Minify enables language-aware minification.
	// Default (DefaultConfig): true
	Minify bool `yaml:"minify"`

	// MaxFragmentBytes truncates longer fragments before processing.
	// Zero or negative disables the cap.
	// Default (DefaultConfig): 1 MiB
	MaxFragmentBytes int `yaml:"max_fragment_bytes"`

	// Detectors replaces the built-in sanitizer detectors when set.
	Detectors []Detector `yaml:"-"`

	// Logger receives one warning per redacted category.
	// Default: observe.NopLogger()
	Logger observe.Logger `yaml:"-"`
}

// DefaultConfig returns a configuration with both stages on.
func DefaultConfig() Config {
	return Config{
		Sanitize:         true,
		Minify:           true,
		MaxFragmentBytes: DefaultMaxFragmentBytes,
	}
}

// Fragment is a piece of fetched text and the path it came from.
type Fragment struct {
	Path string
	Text string
}

// ProcessedFragment is the output of Processor.
type ProcessedFragment struct {
	Text               string    `json:"text"`
	Warnings           []Warning `json:"warnings,omitempty"`
	Minified           bool      `json:"minified"`
	MinificationFailed bool      `json:"minification_failed,omitempty"`
}

// Processor sanitizes and then minifies fetched content.
//
// Contract:
// - Ordering: sanitization always runs before the size cap and minification,
//   so content in comments or past the cap is scanned whole.
// - Errors: never fails. A minification error keeps the sanitized text and
//   sets MinificationFailed.
// - Concurrency: safe for concurrent use.
type Processor struct {
	config    Config
	sanitizer *Sanitizer
	logger    observe.Logger
}

// NewProcessor creates a processor.
func NewProcessor(config Config) *Processor {
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	return &Processor{
		config:    config,
		sanitizer: NewSanitizer(config.Detectors...),
		logger:    config.Logger,
	}
}

// Config returns the processor configuration.
func (p *Processor) Config() Config {
	return p.config
}

// Process runs the enabled stages over text read from path.
func (p *Processor) Process(ctx context.Context, path, text string) ProcessedFragment {
	return p.process(ctx, path, text, nil)
}

// ProcessAll processes fragments in order. A category is reported once per
// path across the batch.
func (p *Processor) ProcessAll(ctx context.Context, fragments []Fragment) []ProcessedFragment {
	seen := make(map[string]bool)
	out := make([]ProcessedFragment, len(fragments))
	for i, f := range fragments {
		out[i] = p.process(ctx, f.Path, f.Text, seen)
	}
	return out
}

func (p *Processor) process(ctx context.Context, path, text string, seen map[string]bool) ProcessedFragment {
	var warnings []Warning

	if p.config.Sanitize {
		var found []Warning
		text, found = p.sanitizer.Sanitize(path, text)
		warnings = append(warnings, found...)
	}

	if limit := p.config.MaxFragmentBytes; limit > 0 && len(text) > limit {
		warnings = append(warnings, Warning{
			Category: CategoryTruncated,
			Path:     path,
			Message:  fmt.Sprintf("fragment truncated from %d to %d bytes", len(text), limit),
		})
		text = truncate(text, limit)
	}

	out := ProcessedFragment{Text: text}
	if p.config.Minify {
		lang := LanguageFor(path)
		minified, err := Minify(lang, text)
		if err != nil {
			out.MinificationFailed = true
			p.logger.Debug(ctx, "minification failed",
				observe.Field{Key: "path", Value: path},
				observe.Field{Key: "language", Value: lang.Name},
				observe.Field{Key: "error", Value: err.Error()},
			)
		} else {
			out.Text = minified
			out.Minified = true
		}
	}

	out.Warnings = p.report(ctx, warnings, seen)
	return out
}

func (p *Processor) report(ctx context.Context, warnings []Warning, seen map[string]bool) []Warning {
	out := warnings[:0]
	for _, w := range warnings {
		if seen != nil {
			k := w.Path + "\x00" + w.Category
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, w)
		p.logger.Warn(ctx, "content flagged",
			observe.Field{Key: "path", Value: w.Path},
			observe.Field{Key: "category", Value: w.Category},
			observe.Field{Key: "count", Value: w.Count},
		)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
