// Package content prepares fetched repository text for downstream use.
//
// A Processor runs two stages over each fragment: the Sanitizer redacts
// secrets, prompt-injection phrases and hidden control characters in place,
// then Minify strips comments and insignificant whitespace according to the
// file's language. Sanitization always runs first. Neither stage fails the
// caller: detector panics are reported as inconclusive and minification
// errors keep the sanitized text.
package content
