package validate

import (
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"user@example.com", true},
		{"a@b.c", true},
		{"first.last+tag@sub.example.co", true},
		{"a@b", false},
		{"user@", false},
		{"@example.com", false},
		{"", false},
		{"user example@example.com", false},
		{"user@exa mple.com", false},
		{strings.Repeat("a", 250) + "@b.co", false}, // over 255
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.in); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"+33612345678", true},
		{"+123456789012345", true},
		{"0612345678", false},   // no leading +
		{"+336123", false},      // too short
		{"+1234567890123456", false}, // too long
		{"+33 612345678", false},
		{"+33-612345678", false},
		{"", false},
		{"+", false},
	}

	for _, tt := range tests {
		if got := IsValidPhone(tt.in); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidISODate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"2026-08-29", true},
		{"2024-02-29", true},  // leap day
		{"2023-02-29", false}, // not a leap year
		{"2026-13-01", false},
		{"2026-00-10", false},
		{"2026-08-32", false},
		{"26-08-29", false},
		{"2026/08/29", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidISODate(tt.in); got != tt.want {
			t.Errorf("IsValidISODate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"00:00", true},
		{"23:59", true},
		{"09:30", true},
		{"24:00", false},
		{"12:60", false},
		{"9:30", false},
		{"09:3", false},
		{"09-30", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidTime(tt.in); got != tt.want {
			t.Errorf("IsValidTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEscapeMarkup(t *testing.T) {
	t.Parallel()

	got := EscapeMarkup(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&#39;s&lt;/a&gt;"
	if got != want {
		t.Errorf("EscapeMarkup() = %q, want %q", got, want)
	}

	if got := EscapeMarkup("plain text"); got != "plain text" {
		t.Errorf("EscapeMarkup() altered clean input: %q", got)
	}
}
