// Package htmlsanitize strips markup from user-supplied text.
//
// Registrant-facing fields (team names, points notes, display names)
// are stored and rendered as plain text, so the strict policy is the
// only one exposed.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Strip removes every HTML element and attribute from s, returning the
// remaining text trimmed of surrounding whitespace.
func Strip(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// IsPlainText reports whether s contains no markup. Strings with a bare
// < or > (for example "5 < 10") still count as plain text.
func IsPlainText(s string) bool {
	lt := strings.Index(s, "<")
	if lt == -1 {
		return true
	}
	return strings.Index(s[lt:], ">") == -1
}
