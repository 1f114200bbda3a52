package scene

import (
	"path"
	"strings"
)

// MatchPattern reports whether s matches a host-style glob pattern.
// The pattern is a space-separated list of tokens evaluated left to right;
// each token supports *, ? and [...] wildcards and a leading ^ removes
// previously matched names (e.g. "* ^tmp*").
func MatchPattern(pattern, s string, ignoreCase bool) bool {
	if ignoreCase {
		pattern = strings.ToLower(pattern)
		s = strings.ToLower(s)
	}
	matched := false
	for _, tok := range strings.Fields(pattern) {
		exclude := strings.HasPrefix(tok, "^")
		if exclude {
			tok = tok[1:]
		}
		if tokenMatch(tok, s) {
			matched = !exclude
		}
	}
	return matched
}

func tokenMatch(tok, s string) bool {
	ok, err := path.Match(tok, s)
	if err != nil {
		return tok == s
	}
	return ok
}
