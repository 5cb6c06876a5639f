// Package validate provides shape checks for untrusted field values.
// Every function here is pure and total: malformed input yields a
// rejection, never a panic or an error.
package validate

import (
	"regexp"
	"strings"
	"time"
)

const maxEmailLength = 255

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+[0-9]{10,15}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// IsValidEmail reports whether s has local@domain.tld shape.
// "a@b.c" is accepted, "a@b" is rejected (no TLD separator).
func IsValidEmail(s string) bool {
	if s == "" || len(s) > maxEmailLength {
		return false
	}
	return emailPattern.MatchString(s)
}

// IsValidPhone reports whether s is an E.164-like number: a leading
// "+" followed by 10 to 15 digits, no separators.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsValidISODate reports whether s is a YYYY-MM-DD string that parses
// to a real calendar date ("2024-02-30" fails).
func IsValidISODate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsValidTime reports whether s is a 24-hour HH:MM string.
func IsValidTime(s string) bool {
	return timePattern.MatchString(s)
}

var markupReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeMarkup replaces the five HTML-significant characters with their
// entity equivalents. Only for untrusted text later rendered as markup.
func EscapeMarkup(s string) string {
	return markupReplacer.Replace(s)
}
