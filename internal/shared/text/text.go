package text

import (
	"regexp"
	"strings"
)

var mentionRe = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// Excerpt shortens s to at most n runes, appending an ellipsis when cut.
func Excerpt(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}

// Mentions returns the distinct @usernames referenced in s, in order of
// first appearance and without the @ prefix.
func Mentions(s string) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, m := range mentionRe.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
