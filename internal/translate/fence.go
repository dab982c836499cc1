package translate

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:[a-z0-9_+-]*[ \t]*\r?\n)?")
	trailingFence = regexp.MustCompile("\r?\n?```$")
)

// StripFences removes a leading code fence (with optional language tag) and a
// trailing code fence from model output, then trims surrounding whitespace.
// Text without fences is returned trimmed.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
