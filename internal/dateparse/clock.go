package dateparse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day found in the input text
type Clock struct {
	Hour   int
	Minute int
}

// On places the clock on the calendar day of t
func (c Clock) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

var (
	// "7pm", "7:30 PM", "7.30 p.m."
	meridiemClockPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:[:.](\d{2}))?\s*([ap])\.?\s?m\b\.?`)
	// "19:00"
	twentyFourClockPattern = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	// "noon", "midnight"
	wordClockPattern = regexp.MustCompile(`(?i)\b(noon|midday|midnight)\b`)
)

// to24Hour converts a 12-hour clock reading: pm adds 12 unless the hour is
// already 12 or more, am at hour 12 becomes 0
func to24Hour(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "p":
		if hour < 12 {
			hour += 12
		}
	case "a":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

type clockSpan struct {
	start, end int
	clock      Clock
	meridiem   string // "a" or "p" when the text carried one
	bare       bool   // read by the 24h pattern
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

// inheritMeridiem gives a bare clock such as the "7:00" in "7:00 - 9:00 PM"
// the meridiem of the clock right after it, as long as nothing but words and
// separators sit between them and the result does not pass the later clock
func inheritMeridiem(s string, spans []clockSpan) {
	for i := 0; i+1 < len(spans); i++ {
		cur, next := &spans[i], spans[i+1]
		if !cur.bare || next.meridiem == "" || cur.clock.Hour < 1 || cur.clock.Hour > 12 {
			continue
		}
		if strings.ContainsAny(s[cur.end:next.start], "0123456789") {
			continue
		}
		c := Clock{Hour: to24Hour(cur.clock.Hour, next.meridiem), Minute: cur.clock.Minute}
		if c.minutes() <= next.clock.minutes() {
			cur.clock = c
		}
	}
}

// extractClocks returns every clock in s in order of appearance, and s with
// those clocks blanked out so date patterns cannot mistake them for days
func extractClocks(s string) ([]Clock, string) {
	masked := []byte(s)
	var spans []clockSpan

	mask := func(start, end int) {
		for i := start; i < end; i++ {
			masked[i] = ' '
		}
	}

	for _, loc := range meridiemClockPattern.FindAllStringSubmatchIndex(string(masked), -1) {
		hour, _ := strconv.Atoi(s[loc[2]:loc[3]])
		minute := 0
		if loc[4] >= 0 {
			minute, _ = strconv.Atoi(s[loc[4]:loc[5]])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			continue
		}
		meridiem := strings.ToLower(s[loc[6]:loc[7]])
		spans = append(spans, clockSpan{start: loc[0], end: loc[1], clock: Clock{Hour: to24Hour(hour, meridiem), Minute: minute}, meridiem: meridiem})
		mask(loc[0], loc[1])
	}

	for _, loc := range twentyFourClockPattern.FindAllStringSubmatchIndex(string(masked), -1) {
		hour, _ := strconv.Atoi(s[loc[2]:loc[3]])
		minute, _ := strconv.Atoi(s[loc[4]:loc[5]])
		spans = append(spans, clockSpan{start: loc[0], end: loc[1], clock: Clock{Hour: hour, Minute: minute}, bare: true})
		mask(loc[0], loc[1])
	}

	for _, loc := range wordClockPattern.FindAllStringSubmatchIndex(string(masked), -1) {
		c := Clock{Hour: 12}
		if strings.EqualFold(s[loc[2]:loc[3]], "midnight") {
			c.Hour = 0
		}
		spans = append(spans, clockSpan{start: loc[0], end: loc[1], clock: c})
		mask(loc[0], loc[1])
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	inheritMeridiem(s, spans)

	clocks := make([]Clock, 0, len(spans))
	for _, sp := range spans {
		clocks = append(clocks, sp.clock)
	}
	return clocks, string(masked)
}

// ParseTimeOfDay parses a single clock reading such as "19:00" or "7:30pm"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	clocks, rest := extractClocks(strings.TrimSpace(s))
	if len(clocks) != 1 || strings.TrimSpace(rest) != "" {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(clocks[0]), nil
}
