package scripts

import (
	"fmt"
	"strings"
)

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func isComment(trimmed string) bool { return strings.HasPrefix(trimmed, "#") }

// precedingComment returns the text of lines[i-1] when it is a remark,
// excluding interpreter directives.
func precedingComment(lines []string, i int) (string, bool) {
	if i == 0 {
		return "", false
	}
	prev := strings.TrimSpace(lines[i-1])
	if !isComment(prev) || strings.HasPrefix(prev, "#!") {
		return "", false
	}
	text := strings.TrimSpace(strings.TrimLeft(prev, "#"))
	if text == "" {
		return "", false
	}
	return text, true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// slug lower-cases s and maps separators to underscores.
func slug(s string) string {
	return strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(strings.ToLower(s))
}

// uniqueID returns id, or id with the lowest free numeric suffix if id has
// already been emitted. The result is recorded in seen.
func uniqueID(seen map[string]bool, id string) string {
	out := id
	for n := 2; seen[out]; n++ {
		out = fmt.Sprintf("%s_%d", id, n)
	}
	seen[out] = true
	return out
}
