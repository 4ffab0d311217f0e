// Package normalize provides input normalization helpers used across
// handlers and stores. Every external string that ends up in a query
// filter or on a document goes through one of these first.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email lowercases and trims an email address. Emails are stored and
// matched in this form only.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// TeamCode trims and lowercases a team join code so lookups are
// case-insensitive from the user's point of view.
func TeamCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TeamNameCI folds a team name for case-insensitive uniqueness checks.
func TeamNameCI(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// QueryParam trims a free-form query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
