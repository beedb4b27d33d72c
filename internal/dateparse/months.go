package dateparse

import (
	"strings"
	"time"
)

// monthPattern is a capturing group matching full and abbreviated English
// month names. Longer alternatives come first since RE2 alternation is
// leftmost-first.
const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|sept|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)`

// weekdayPattern matches an optional leading weekday such as "Fri, " or "Saturday "
const weekdayPattern = `(?:(?:mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(?:day|nesday|sday|urday)?\.?,?\s+)?`

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseMonth converts a month name to time.Month, returning 0 when unknown
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	return months[name]
}

// daysIn returns the number of days in the given month
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// validDay reports whether day exists in month of year
func validDay(year int, month time.Month, day int) bool {
	return month >= time.January && month <= time.December && day >= 1 && day <= daysIn(year, month)
}
