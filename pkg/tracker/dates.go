package tracker

import (
	"strings"
	"time"
)

// DateLayout is the on-disk date format.
const DateLayout = "2006-01-02"

// FollowUpDelay is how long after applying a follow-up is scheduled by default.
const FollowUpDelay = 7 * 24 * time.Hour

// ParseDate parses a YYYY-MM-DD value. Empty or malformed values report false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
