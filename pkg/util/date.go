package util

import (
	"strconv"
	"time"
)

// DayLayout is the ISO calendar-day format used in history points.
const DayLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, a bare day and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// StartOfDayUTC truncates t to midnight UTC.
func StartOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders t's UTC calendar day.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// DayWindow returns [today-days, tomorrow) in UTC, i.e. days+1 whole calendar days ending today.
func DayWindow(now time.Time, days int) (from, to time.Time) {
	today := StartOfDayUTC(now)
	return today.AddDate(0, 0, -days), today.AddDate(0, 0, 1)
}
