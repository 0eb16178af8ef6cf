// Package clinicdate parses and formats the date strings stored on clinic
// records. Calendar dates are stored as YYYY-MM-DD; upload timestamps may
// carry a time component.
package clinicdate

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the stored calendar-date format.
const Layout = "2006-01-02"

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	Layout,
}

// Today returns now's calendar date in loc as YYYY-MM-DD.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(Layout)
}

// Parse accepts any stored date representation. Values without a zone are
// interpreted in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// Valid reports whether s is a YYYY-MM-DD calendar date.
func Valid(s string) bool {
	_, err := time.Parse(Layout, s)
	return err == nil
}
