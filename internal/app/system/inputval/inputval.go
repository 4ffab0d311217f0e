// Package inputval validates user-supplied input at the HTTP boundary.
//
// Two layers: standalone predicates (IsValidEmail and friends) for
// one-off checks, and a tag-driven Validate for request structs:
//
//	type registerInput struct {
//		Email string `validate:"required,email" label:"Email address"`
//		Name  string `validate:"required,max=100" label:"Name"`
//	}
//
//	result := inputval.Validate(in)
//	if result.HasErrors() { ... result.First() ... }
package inputval

import (
	"net/url"
	"strings"
)

// IsValidEmail reports whether s is a plausible email address.
// Stricter than a net/mail parse: display names, stray whitespace, and
// dotted-out local/domain parts are all rejected. Single-label domains
// are allowed for dev and test environments.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	if !validLocalPart(local) {
		return false
	}
	return validDomain(domain)
}

func validLocalPart(local string) bool {
	if local == "" ||
		strings.HasPrefix(local, ".") ||
		strings.HasSuffix(local, ".") ||
		strings.Contains(local, "..") {
		return false
	}
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune(".!#$%&'*+/=?^_`{|}~-", r):
		default:
			return false
		}
	}
	return true
}

func validDomain(domain string) bool {
	if domain == "" || strings.Contains(domain, "..") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			default:
				return false
			}
		}
	}
	return true
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidObjectID reports whether s looks like a Mongo ObjectID
// (24 hex characters).
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidTeamCode reports whether s looks like a team join code: seven
// lowercase hex characters, the leading slice of a UUID.
func IsValidTeamCode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 7 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
