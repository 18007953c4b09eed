package query

import (
	"slices"
	"strconv"
	"strings"
)

// tokens accumulates query tokens. Only constraint tokens count towards a
// non-empty query; the entity qualifier is added by finish.
type tokens struct {
	parts []string
}

func (t *tokens) add(tok string) {
	if tok != "" {
		t.parts = append(t.parts, tok)
	}
}

// terms adds free-text terms as given.
func (t *tokens) terms(values []string) {
	for _, v := range clean(values) {
		t.add(v)
	}
}

// anyOf joins terms with OR. A single term is added on its own.
func (t *tokens) anyOf(values []string) {
	values = clean(values)
	if len(values) == 0 {
		return
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteIfSpaced(v)
	}
	t.add(strings.Join(quoted, " OR "))
}

// phrase adds an always-quoted exact phrase.
func (t *tokens) phrase(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	t.add(quote(v))
}

// qualifier adds name:value for a non-empty value.
func (t *tokens) qualifier(name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	t.add(name + ":" + quoteIfSpaced(value))
}

// qualifiers adds one name:value token per value.
func (t *tokens) qualifiers(name string, values []string) {
	for _, v := range clean(values) {
		t.qualifier(name, v)
	}
}

// flag adds no:<field> when set.
func (t *tokens) flag(set bool, field string) {
	if set {
		t.add("no:" + field)
	}
}

// tristate adds whenTrue or whenFalse depending on a non-nil v.
func (t *tokens) tristate(v *bool, whenTrue, whenFalse string) {
	if v == nil {
		return
	}
	if *v {
		t.add(whenTrue)
	} else {
		t.add(whenFalse)
	}
}

// in adds in:<field>,<field> for search scopes.
func (t *tokens) in(fields []string) {
	fields = clean(fields)
	if len(fields) > 0 {
		t.add("in:" + strings.Join(fields, ","))
	}
}

// scope adds the repository scope derived from owners and repos. Bare repo
// names pair with every owner; owner/name repos stand alone. Owners that pair
// with no bare name are kept as user: alternatives, so no input is dropped.
func (t *tokens) scope(owners, repos []string) {
	owners, repos = clean(owners), clean(repos)

	var qualified []string
	var bare []string
	for _, r := range repos {
		if strings.Contains(r, "/") {
			qualified = append(qualified, "repo:"+r)
		} else {
			bare = append(bare, r)
		}
	}

	switch {
	case len(bare) > 0 && len(owners) > 0:
		for _, o := range owners {
			for _, r := range bare {
				qualified = append(qualified, "repo:"+o+"/"+r)
			}
		}
	case len(bare) > 0:
		for _, r := range bare {
			qualified = append(qualified, "repo:"+r)
		}
	case len(qualified) == 0:
		t.qualifiers("user", owners)
		return
	default:
		// Owners with only owner/name repos widen the scope to their
		// repositories as well.
		for _, o := range owners {
			qualified = append(qualified, "user:"+o)
		}
	}

	// A result lives in exactly one repository, so several scopes mean any of them.
	t.add(strings.Join(qualified, " OR "))
}

func (t *tokens) empty() bool {
	return len(t.parts) == 0
}

// finish returns the query, appending entity when at least one constraint exists.
func (t *tokens) finish(entity string) string {
	if t.empty() {
		return ""
	}
	if entity != "" {
		t.add(entity)
	}
	return strings.Join(t.parts, " ")
}

// clean trims values, drops empties and removes duplicates, keeping order.
func clean(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func quoteIfSpaced(v string) string {
	if isQuoted(v) || !strings.ContainsAny(v, " \t\n") {
		return v
	}
	return quote(v)
}

func quote(v string) string {
	if isQuoted(v) {
		return v
	}
	return strconv.Quote(v)
}

func isQuoted(v string) bool {
	return len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`)
}
