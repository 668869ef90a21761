package lookup

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Answer length bounds in characters. Longer replies are explanations, not
// names. Owner names must be shorter than maxOwnerLen.
const (
	maxNameLen  = 80
	maxOwnerLen = 50
	minOwnerLen = 3
)

var (
	emphasisRe    = regexp.MustCompile(`[*_]+`)
	citationRe    = regexp.MustCompile(`\s*\[[\d,\s]+\]\s*`)
	bulletRe      = regexp.MustCompile(`^[\d.\-*•]+\s*`)
	parentheticRe = regexp.MustCompile(`\s*[(\[].*?[)\]]`)
)

// CleanAnswer strips markdown emphasis and citation markers such as [1] or
// [2, 3] from a model reply and collapses whitespace.
func CleanAnswer(s string) string {
	s = emphasisRe.ReplaceAllString(s, "")
	s = citationRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func isUnknown(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "unknown")
}

// cleanName returns the display name in a reply, or "".
func cleanName(reply string) string {
	name := strings.Trim(CleanAnswer(reply), `"'`)
	if name == "" || isUnknown(name) || utf8.RuneCountInString(name) > maxNameLen {
		return ""
	}
	return name
}

// cleanOwner returns the single owner name in a reply, or "".
func cleanOwner(reply string) string {
	if isUnknown(reply) {
		return ""
	}
	// First line only; CleanAnswer would join lines.
	line := strings.TrimSpace(reply)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = CleanAnswer(line)
	line = bulletRe.ReplaceAllString(line, "")
	line = strings.TrimSpace(parentheticRe.ReplaceAllString(line, ""))
	line = strings.Trim(line, `"'`)

	if n := utf8.RuneCountInString(line); n < minOwnerLen || n >= maxOwnerLen || isUnknown(line) {
		return ""
	}
	return line
}
