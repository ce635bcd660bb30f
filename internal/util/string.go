package util

import "strings"

// Snippet shortens s to at most maxRunes runes for log output,
// collapsing newlines so a log entry stays on one line.
func Snippet(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
