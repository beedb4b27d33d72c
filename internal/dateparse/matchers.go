package dateparse

import (
	"regexp"
	"strconv"
	"time"
)

// Matcher names, in default evaluation order
const (
	MatcherRangeWithTime  = "range_with_time"
	MatcherRange          = "range"
	MatcherSingleWithTime = "single_with_time"
	MatcherSingle         = "single"
	MatcherTimeOnly       = "time_only"
	MatcherFallback       = "fallback"
)

// DefaultMatchers returns the cascade, most specific first
func DefaultMatchers() []Matcher {
	return []Matcher{
		rangeMatcher{withClock: true},
		rangeMatcher{withClock: false},
		singleMatcher{withClock: true},
		singleMatcher{withClock: false},
		timeOnlyMatcher{},
		fallbackMatcher{},
	}
}

const (
	ordinal   = `(?:st|nd|rd|th)?`
	rangeSep  = `(?:-|–|—|\bto\b|\bthrough\b|\bthru\b|\buntil\b)`
	yearGroup = `(?:,?\s*(\d{4}))?`
)

var (
	// "July 5 - 14, 2024", "Jul 5, 2024 to Aug 2, 2024", "Fri, Dec 28 - Sat, Jan 3"
	rangePattern = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})` + ordinal + `\b` + yearGroup +
		`\s*` + rangeSep + `\s*` + weekdayPattern + `(?:` + monthPattern + `\.?\s+)?(\d{1,2})` + ordinal + `\b` + yearGroup)

	// "July: 7 - 17, 2024", "JULY | 7-17 2024" - one leading month token for both days
	compactRangePattern = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s*[:,|/]\s*(\d{1,2})` + ordinal + `\s*(?:-|–|—)\s*(\d{1,2})` + ordinal + `\b` + yearGroup)

	// "July 5, 2024", "Sat Jul 5th"
	monthFirstPattern = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})` + ordinal + `\b` + yearGroup)

	// "5 July 2024", "5th of July"
	dayFirstPattern = regexp.MustCompile(`(?i)\b(\d{1,2})` + ordinal + `\s+(?:of\s+)?` + monthPattern + `\b\.?` + yearGroup)

	monthWordPattern = regexp.MustCompile(`(?i)\b` + monthPattern + `\b`)
	digitPattern     = regexp.MustCompile(`\d`)
)

// ---- ranges ----

type rangeParts struct {
	startMonth, endMonth time.Month
	startDay, endDay     int
	startYear, endYear   int
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func findRange(text string) (rangeParts, bool) {
	if m := rangePattern.FindStringSubmatch(text); m != nil {
		p := rangeParts{
			startMonth: parseMonth(m[1]),
			startDay:   atoi(m[2]),
			startYear:  atoi(m[3]),
			endMonth:   parseMonth(m[4]),
			endDay:     atoi(m[5]),
			endYear:    atoi(m[6]),
		}
		if p.endMonth == 0 {
			p.endMonth = p.startMonth
		}
		return p, true
	}

	if m := compactRangePattern.FindStringSubmatch(text); m != nil {
		month := parseMonth(m[1])
		year := atoi(m[4])
		return rangeParts{
			startMonth: month,
			endMonth:   month,
			startDay:   atoi(m[2]),
			endDay:     atoi(m[3]),
			endYear:    year,
		}, true
	}

	return rangeParts{}, false
}

// resolve fills in missing years and returns both days at midnight. A
// missing start year is taken from the end, a missing end year from the
// start, and both default to the reference year. When the end lands before
// the start and the start month is later than the end month, an inherited
// year is moved by one; explicit years never are. Any other reversal is
// rejected.
func (p rangeParts) resolve(refYear int) (time.Time, time.Time, string) {
	startInherited := p.startYear == 0
	endInherited := p.endYear == 0

	switch {
	case startInherited && endInherited:
		p.startYear, p.endYear = refYear, refYear
		startInherited = false
	case startInherited:
		p.startYear = p.endYear
	case endInherited:
		p.endYear = p.startYear
	}

	if !validDay(p.startYear, p.startMonth, p.startDay) || !validDay(p.endYear, p.endMonth, p.endDay) {
		return time.Time{}, time.Time{}, "invalid day of month"
	}

	start := day(p.startYear, p.startMonth, p.startDay)
	end := day(p.endYear, p.endMonth, p.endDay)

	if end.Before(start) {
		// Only a month wrap such as Dec 28 - Jan 3 can cross a year boundary
		if p.startMonth <= p.endMonth {
			return time.Time{}, time.Time{}, "end before start"
		}
		switch {
		case startInherited:
			p.startYear--
		case endInherited:
			p.endYear++
		default:
			return time.Time{}, time.Time{}, "end before start"
		}
		if !validDay(p.startYear, p.startMonth, p.startDay) || !validDay(p.endYear, p.endMonth, p.endDay) {
			return time.Time{}, time.Time{}, "invalid day of month"
		}
		start = day(p.startYear, p.startMonth, p.startDay)
		end = day(p.endYear, p.endMonth, p.endDay)
	}

	return start, end, ""
}

// rangeMatcher handles "Month D1 - [Month] D2[, Year]" with or without a clock
type rangeMatcher struct {
	withClock bool
}

func (m rangeMatcher) Name() string {
	if m.withClock {
		return MatcherRangeWithTime
	}
	return MatcherRange
}

func (m rangeMatcher) Match(in *Input, d Defaults) (Result, bool) {
	if in.HasClock() != m.withClock {
		return Result{}, false
	}
	parts, ok := findRange(in.Date)
	if !ok {
		return Result{}, false
	}

	startDay, endDay, reason := parts.resolve(d.Reference.Year())
	if reason != "" {
		return unparseable(reason), true
	}

	clock := d.StartTime.Clock()
	if c, ok := in.startClock(); ok {
		clock = c
	}

	start := clock.On(startDay)
	var end time.Time
	if c, ok := in.endClock(); ok {
		end = c.On(endDay)
	} else {
		end = d.Duration.MultiDay.From(clock.On(endDay))
	}

	return Result{Start: start, End: end, Confidence: Matched}, true
}

// ---- single dates ----

func findSingle(text string, refYear int) (time.Time, string, bool) {
	var month time.Month
	var dayOfMonth, year int

	if m := monthFirstPattern.FindStringSubmatch(text); m != nil {
		month, dayOfMonth, year = parseMonth(m[1]), atoi(m[2]), atoi(m[3])
	} else if m := dayFirstPattern.FindStringSubmatch(text); m != nil {
		dayOfMonth, month, year = atoi(m[1]), parseMonth(m[2]), atoi(m[3])
	} else {
		return time.Time{}, "", false
	}

	if year == 0 {
		year = refYear
	}
	if !validDay(year, month, dayOfMonth) {
		return time.Time{}, "invalid day of month", true
	}
	return day(year, month, dayOfMonth), "", true
}

// singleEnd applies an explicit end clock, rolling past midnight when needed,
// or the single-day span of the duration policy
func singleEnd(in *Input, start time.Time, d Defaults) time.Time {
	if c, ok := in.endClock(); ok {
		end := c.On(start)
		if end.Before(start) {
			end = end.AddDate(0, 0, 1)
		}
		return end
	}
	return d.Duration.Single.From(start)
}

// singleMatcher handles "Month D[, Year]" and "D Month [Year]"
type singleMatcher struct {
	withClock bool
}

func (m singleMatcher) Name() string {
	if m.withClock {
		return MatcherSingleWithTime
	}
	return MatcherSingle
}

func (m singleMatcher) Match(in *Input, d Defaults) (Result, bool) {
	if in.HasClock() != m.withClock {
		return Result{}, false
	}
	date, reason, ok := findSingle(in.Date, d.Reference.Year())
	if !ok {
		return Result{}, false
	}
	if reason != "" {
		return unparseable(reason), true
	}

	clock := d.StartTime.Clock()
	if c, ok := in.startClock(); ok {
		clock = c
	}
	start := clock.On(date)

	return Result{Start: start, End: singleEnd(in, start, d), Confidence: Matched}, true
}

// ---- bare clock ----

// timeOnlyMatcher places a bare clock on the reference day. It refuses text
// that still carries digits or a month name, since that is a date it could
// not read rather than a missing one.
type timeOnlyMatcher struct{}

func (timeOnlyMatcher) Name() string { return MatcherTimeOnly }

func (timeOnlyMatcher) Match(in *Input, d Defaults) (Result, bool) {
	if !in.HasClock() || digitPattern.MatchString(in.Date) || monthWordPattern.MatchString(in.Date) {
		return Result{}, false
	}
	start := in.Clocks[0].On(d.Reference)
	return Result{Start: start, End: singleEnd(in, start, d), Confidence: Matched}, true
}

// ---- generic layouts ----

type layout struct {
	format   string
	hasClock bool
}

var fallbackLayouts = []layout{
	{time.RFC3339, true},
	{"2006-1-2T15:04:05", true},
	{"2006-1-2T15:04", true},
	{"2006-1-2 15:04:05", true},
	{"2006-1-2 15:04", true},
	{"2006-1-2", false},
	{"2006/1/2", false},
	{"1/2/2006", false},
	{"1/2/06", false},
	{"1.2.2006", false},
	{"1.2.06", false},
	{"Jan 2 2006", false},
	{"January 2 2006", false},
	{"Mon Jan 2 2006", false},
	{"2 Jan 2006", false},
	{"2 January 2006", false},
}

var numericDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}(?:[T ]\d{1,2}:\d{2}(?::\d{2})?)?\b`),
	regexp.MustCompile(`\b\d{4}/\d{1,2}/\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{2,4}\b`),
}

// fallbackMatcher tries generic layouts on the whole text and on numeric
// date tokens found inside it
type fallbackMatcher struct{}

func (fallbackMatcher) Name() string { return MatcherFallback }

func (fallbackMatcher) Match(in *Input, d Defaults) (Result, bool) {
	candidates := []string{in.Raw, in.Date}
	for _, p := range numericDatePatterns {
		candidates = append(candidates, p.FindAllString(in.Raw, -1)...)
	}

	seen := make(map[string]bool)
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true

		for _, l := range fallbackLayouts {
			t, err := time.Parse(l.format, c)
			if err != nil {
				continue
			}
			t = Naive(t)

			start := t
			if !l.hasClock {
				clock := d.StartTime.Clock()
				if sc, ok := in.startClock(); ok {
					clock = sc
				}
				start = clock.On(t)
			}
			return Result{Start: start, End: singleEnd(in, start, d), Confidence: Matched}, true
		}
	}

	return Result{}, false
}
