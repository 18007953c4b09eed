package secret

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExpandEnvStrict expands environment variables in a configuration file.
//
//   - ${VAR} must be set; every unset braced name is reported in one
//     ErrMissingEnv error.
//   - $VAR expands to the empty string when unset.
//   - $$ is a literal dollar sign.
//
// Anything else after a dollar sign is copied unchanged.
func ExpandEnvStrict(s string) (string, error) {
	return expand(s, os.LookupEnv)
}

func expand(s string, lookup func(string) (string, bool)) (string, error) {
	var (
		b       strings.Builder
		missing []string
	)
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			name := ""
			if end >= 0 {
				name = s[i+2 : i+2+end]
			}
			if !isEnvName(name) {
				b.WriteByte('$')
				continue
			}
			if v, ok := lookup(name); ok {
				b.WriteString(v)
			} else if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			i += end + 2
		case isEnvStart(next):
			j := i + 2
			for j < len(s) && isEnvPart(s[j]) {
				j++
			}
			v, _ := lookup(s[i+1 : j])
			b.WriteString(v)
			i = j - 1
		default:
			b.WriteByte('$')
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return b.String(), nil
}

func isEnvName(name string) bool {
	if name == "" || !isEnvStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isEnvPart(name[i]) {
			return false
		}
	}
	return true
}

func isEnvStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isEnvPart(c byte) bool {
	return isEnvStart(c) || ('0' <= c && c <= '9')
}
