package filter

import (
	"regexp"
	"strings"
)

// GlobToRegexp translates a wildcard pattern into an anchored regular
// expression. "*" stands for any non-empty run of characters; everything
// else is matched literally. Both the in-memory source and the SQL source
// (Postgres "~") consume the result, so glob semantics stay identical.
func GlobToRegexp(pattern string) string {
	parts := strings.Split(pattern, "*")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range parts {
		if i > 0 {
			b.WriteString("(.+)")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("$")
	return b.String()
}
