package domain

import (
	"strings"
	"time"
)

// ─── Date & Week Keys ───────────────────────────────────────────────────────

// DateLayout is the canonical day key format (ISO calendar date).
const DateLayout = "2006-01-02"

// AnchorDate is the epoch key that always carries the initial cumulative
// total in the score history.
const AnchorDate = "1970-01-01"

// WeekKeyPrefix prefixes every week key.
const WeekKeyPrefix = "week-"

// DateKey formats t as a day key in t's location.
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// ParseDateKey parses a day key. Returns the zero time on malformed input.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse(DateLayout, key)
}

// ValidDateKey reports whether key is a well-formed day key.
func ValidDateKey(key string) bool {
	_, err := time.Parse(DateLayout, key)
	return err == nil
}

// WeekKey returns the week key ("week-" + Monday's date) for the week that
// contains dateKey. Weeks start on Monday. Malformed keys map to an empty
// week key rather than an error; callers treat that week as having no state.
func WeekKey(dateKey string) string {
	t, err := time.Parse(DateLayout, dateKey)
	if err != nil {
		return ""
	}
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	monday := t.AddDate(0, 0, -offset)
	return WeekKeyPrefix + monday.Format(DateLayout)
}

// WeekDates returns the seven day keys of the week, Monday first.
// Returns nil for a malformed week key.
func WeekDates(weekKey string) []string {
	start, err := time.Parse(DateLayout, strings.TrimPrefix(weekKey, WeekKeyPrefix))
	if err != nil {
		return nil
	}
	days := make([]string, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return days
}

// PrevDateKey returns the day key immediately before dateKey.
func PrevDateKey(dateKey string) string {
	t, err := time.Parse(DateLayout, dateKey)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// AddDays returns dateKey shifted by n calendar days.
func AddDays(dateKey string, n int) string {
	t, err := time.Parse(DateLayout, dateKey)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}
