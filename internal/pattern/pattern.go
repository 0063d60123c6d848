// Package pattern compiles glob-style key patterns ("*", "?", literal
// characters) into an anchored regular expression matcher, the way the
// engine's KEYS command needs. Compilation happens once per command;
// callers must not recompile per entry on the hot path.
package pattern

import (
	"regexp"
	"strings"
)

// metaChars are the regex metacharacters that must be escaped before a
// glob character is allowed to pass through literally.
const metaChars = `.+^$(){}|[]\`

// Matcher wraps a compiled glob pattern.
type Matcher struct {
	re      *regexp.Regexp
	matchAll bool
}

// Compile translates a glob pattern into a Matcher. An empty pattern
// matches every key.
func Compile(glob string) (*Matcher, error) {
	if glob == "" {
		return &Matcher{matchAll: true}, nil
	}
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			if strings.ContainsRune(metaChars, r) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('$')
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return &Matcher{re: re}, nil
}

// MatchAll returns a Matcher equivalent to an absent pattern: it matches
// every key's stringified form.
func MatchAll() *Matcher {
	return &Matcher{matchAll: true}
}

// MatchString reports whether s (a key's stringified form) matches.
func (m *Matcher) MatchString(s string) bool {
	if m == nil || m.matchAll {
		return true
	}
	return m.re.MatchString(s)
}
