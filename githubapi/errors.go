package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"

	"github.com/jonwraymond/codescout/query"
	"github.com/jonwraymond/codescout/resilience"
)

// Kind classifies a failed GitHub call. Callers branch on Kind, never on the
// error message.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindRateLimited
	KindSecondaryRateLimited
	KindForbidden
	KindNotFound
	KindInvalidQuery
	KindServerUnavailable
	KindNetwork
)

var kindNames = [...]string{
	KindUnknown:              "unknown",
	KindUnauthenticated:      "unauthenticated",
	KindRateLimited:          "rate_limited",
	KindSecondaryRateLimited: "secondary_rate_limited",
	KindForbidden:            "forbidden",
	KindNotFound:             "not_found",
	KindInvalidQuery:         "invalid_query",
	KindServerUnavailable:    "server_unavailable",
	KindNetwork:              "network",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// RateLimit reports whether k is a primary or secondary rate-limit signal.
// These are the only kinds that are retried.
func (k Kind) RateLimit() bool {
	return k == KindRateLimited || k == KindSecondaryRateLimited
}

// APIError is the single error type returned by Client for failed calls.
type APIError struct {
	Kind    Kind
	Status  int // HTTP status, 0 when the call never got a response
	Message string

	// RetryAfter is the wait GitHub asked for, or the time left until the
	// primary limit resets. Zero when unknown.
	RetryAfter time.Duration

	// RateLimitRemaining is nil when the response carried no rate headers.
	RateLimitRemaining *int
	RateLimitResetAt   time.Time

	// ScopeHint names the OAuth scopes a Forbidden call was missing.
	ScopeHint string

	// Timeout is set when the per-call deadline aborted the call.
	Timeout bool

	Err error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("githubapi: ")
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.ScopeHint != "" {
		b.WriteString(" (")
		b.WriteString(e.ScopeHint)
		b.WriteString(")")
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches any *APIError of the same Kind, so errors.Is(err, ErrNotFound)
// works for every not-found failure.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrUnauthenticated      = &APIError{Kind: KindUnauthenticated}
	ErrRateLimited          = &APIError{Kind: KindRateLimited}
	ErrSecondaryRateLimited = &APIError{Kind: KindSecondaryRateLimited}
	ErrForbidden            = &APIError{Kind: KindForbidden}
	ErrNotFound             = &APIError{Kind: KindNotFound}
	ErrInvalidQuery         = &APIError{Kind: KindInvalidQuery}
	ErrServerUnavailable    = &APIError{Kind: KindServerUnavailable}
	ErrNetwork              = &APIError{Kind: KindNetwork}
)

var (
	// ErrNotAFile is wrapped by GetFile when the path names a directory.
	ErrNotAFile = errors.New("githubapi: path is not a file")

	// ErrFileTooLarge is wrapped by GetFile when GitHub omits the content.
	ErrFileTooLarge = errors.New("githubapi: file too large for the contents API")

	// ErrPageOutOfRange is wrapped when page*per_page passes the search window.
	ErrPageOutOfRange = errors.New("githubapi: search results beyond the first 1000 are not available")
)

// KindOf returns the Kind of err, or KindUnknown when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Classify maps any error produced while calling GitHub to an *APIError.
// An *APIError anywhere in the chain is returned as is. Classify(nil) is nil.
func Classify(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, query.ErrEmptyQuery):
		return &APIError{Kind: KindInvalidQuery, Message: "search query has no constraints", Err: err}
	case errors.Is(err, resilience.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return &APIError{Kind: KindNetwork, Message: "request timed out", Timeout: true, Err: err}
	case errors.Is(err, context.Canceled):
		return &APIError{Kind: KindNetwork, Message: "request canceled", Err: err}
	case errors.Is(err, resilience.ErrCircuitOpen):
		return &APIError{Kind: KindServerUnavailable, Message: "too many recent failures, not calling GitHub", Err: err}
	case errors.Is(err, resilience.ErrRateLimitExceeded), errors.Is(err, resilience.ErrBulkheadFull):
		return &APIError{Kind: KindRateLimited, Message: "local request budget exhausted", Err: err}
	}

	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		e := &APIError{
			Kind:    KindRateLimited,
			Status:  statusOf(rle.Response),
			Message: rle.Message,
			Err:     err,
		}
		remaining := rle.Rate.Remaining
		e.RateLimitRemaining = &remaining
		e.RateLimitResetAt = rle.Rate.Reset.Time
		e.RetryAfter = untilReset(rle.Rate.Reset.Time)
		return e
	}

	var are *github.AbuseRateLimitError
	if errors.As(err, &are) {
		e := &APIError{
			Kind:    KindSecondaryRateLimited,
			Status:  statusOf(are.Response),
			Message: are.Message,
			Err:     err,
		}
		if d := are.GetRetryAfter(); d > 0 {
			e.RetryAfter = d
		}
		if are.Response != nil {
			e.applyRateHeaders(are.Response.Header)
		}
		return e
	}

	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return fromResponse(er.Response, er.Message, err)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		e := &APIError{Kind: KindNetwork, Message: "request failed", Err: err}
		if netErr != nil && netErr.Timeout() {
			e.Timeout = true
		} else if urlErr != nil && urlErr.Timeout() {
			e.Timeout = true
		}
		return e
	}

	return &APIError{Kind: KindUnknown, Err: err}
}

// fromResponse classifies a non-2xx response by status and headers.
func fromResponse(resp *http.Response, msg string, err error) *APIError {
	e := &APIError{Status: resp.StatusCode, Message: msg, Err: err}
	e.applyRateHeaders(resp.Header)

	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthenticated
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		if d, ok := retryAfter(resp.Header); ok {
			e.Kind = KindSecondaryRateLimited
			e.RetryAfter = d
		} else if e.RateLimitRemaining != nil && *e.RateLimitRemaining == 0 {
			e.Kind = KindRateLimited
			e.RetryAfter = untilReset(e.RateLimitResetAt)
		} else if status == http.StatusTooManyRequests || secondaryLimitBody(msg) {
			e.Kind = KindSecondaryRateLimited
		} else {
			e.Kind = KindForbidden
			e.ScopeHint = scopeHint(resp.Header)
		}
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindInvalidQuery
	case status >= 500:
		e.Kind = KindServerUnavailable
	default:
		e.Kind = KindUnknown
	}
	return e
}

// secondaryLimitBody reports whether msg is the body GitHub documents for a
// 403 secondary rate limit ("You have exceeded a secondary rate limit...").
// go-github turns most of these into an AbuseRateLimitError from the
// documentation_url, and the headers above are checked first; this covers a
// 403 that carries neither.
func secondaryLimitBody(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "secondary rate limit")
}

func (e *APIError) applyRateHeaders(h http.Header) {
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			e.RateLimitRemaining = &n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			e.RateLimitResetAt = time.Unix(sec, 0)
		}
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	sec, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || sec < 0 {
		return 0, false
	}
	return time.Duration(sec) * time.Second, true
}

// scopeHint compares the scopes an endpoint accepts with the ones the token
// was granted.
func scopeHint(h http.Header) string {
	accepted := splitScopes(h.Get("X-Accepted-OAuth-Scopes"))
	if len(accepted) == 0 {
		return ""
	}
	granted := splitScopes(h.Get("X-OAuth-Scopes"))
	for _, s := range accepted {
		if slices.Contains(granted, s) {
			return ""
		}
	}
	return "token needs one of the scopes: " + strings.Join(accepted, ", ")
}

func splitScopes(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func untilReset(reset time.Time) time.Duration {
	if reset.IsZero() {
		return 0
	}
	return max(time.Until(reset), 0)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
