package core

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanStrings cleans every item of `ss` and drops the empty ones.
func CleanStrings(ss []string) []string {
	cleaned := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = CleanString(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

// ParseDate accepts RFC3339 timestamps, HTML datetime-local values and plain dates. The result is in UTC.
func ParseDate(s string) (time.Time, error) {
	s = CleanString(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("invalid date %q", s)
}

// FullName joins the non-empty name parts with a space.
func FullName(parts ...string) string {
	return strings.Join(CleanStrings(parts), " ")
}
