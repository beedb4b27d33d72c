package dateparse

import (
	"fmt"
	"testing"
	"testing/quick"
	"time"
)

var testReference = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func concertDefaults() Defaults {
	return Defaults{
		StartTime: TimeOfDay{Hour: 19},
		Duration:  ConcertPolicy,
		Reference: testReference,
	}
}

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		dateText    string
		timeText    string
		wantStart   time.Time
		wantEnd     time.Time
		wantMatcher string
	}{
		{
			name:        "Range across days with year",
			dateText:    "July 5 - July 14, 2024",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.July, 14, 23, 59, 59),
			wantMatcher: MatcherRange,
		},
		{
			name:        "Same month range without year",
			dateText:    "Jul 5 - 14",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.July, 14, 23, 59, 59),
			wantMatcher: MatcherRange,
		},
		{
			name:        "Compact range",
			dateText:    "July: 7 - 17, 2024",
			wantStart:   at(2024, time.July, 7, 19, 0, 0),
			wantEnd:     at(2024, time.July, 17, 23, 59, 59),
			wantMatcher: MatcherRange,
		},
		{
			name:        "Range across months with to",
			dateText:    "July 5, 2024 to August 2, 2024",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.August, 2, 23, 59, 59),
			wantMatcher: MatcherRange,
		},
		{
			name:        "Range with weekdays",
			dateText:    "Fri, Dec 27 - Sun, Dec 29, 2024",
			wantStart:   at(2024, time.December, 27, 19, 0, 0),
			wantEnd:     at(2024, time.December, 29, 23, 59, 59),
			wantMatcher: MatcherRange,
		},
		{
			name:        "Range rolls start year back",
			dateText:    "Dec 28 - Jan 3, 2025",
			wantStart:   at(2024, time.December, 28, 19, 0, 0),
			wantEnd:     at(2025, time.January, 3, 23, 59, 59),
			wantMatcher: MatcherRange,
		},
		{
			name:        "Range rolls end year forward",
			dateText:    "Dec 28 - Jan 3",
			wantStart:   at(2024, time.December, 28, 19, 0, 0),
			wantEnd:     at(2025, time.January, 3, 23, 59, 59),
			wantMatcher: MatcherRange,
		},
		{
			name:        "Range with clock range",
			dateText:    "July 5 - 7, 2024",
			timeText:    "10am - 4pm",
			wantStart:   at(2024, time.July, 5, 10, 0, 0),
			wantEnd:     at(2024, time.July, 7, 16, 0, 0),
			wantMatcher: MatcherRangeWithTime,
		},
		{
			name:        "Bare start clock takes trailing meridiem",
			dateText:    "June 5th, 2024 from 7:00 - 9:00 PM",
			wantStart:   at(2024, time.June, 5, 19, 0, 0),
			wantEnd:     at(2024, time.June, 5, 21, 0, 0),
			wantMatcher: MatcherSingleWithTime,
		},
		{
			name:        "Range with start clock only",
			dateText:    "July 5 - 7, 2024",
			timeText:    "11:00 AM",
			wantStart:   at(2024, time.July, 5, 11, 0, 0),
			wantEnd:     at(2024, time.July, 7, 23, 59, 59),
			wantMatcher: MatcherRangeWithTime,
		},
		{
			name:        "Single date with year",
			dateText:    "July 5, 2024",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.July, 5, 21, 0, 0),
			wantMatcher: MatcherSingle,
		},
		{
			name:        "Single date with separate time",
			dateText:    "July 5, 2024",
			timeText:    "7:30 PM",
			wantStart:   at(2024, time.July, 5, 19, 30, 0),
			wantEnd:     at(2024, time.July, 5, 21, 30, 0),
			wantMatcher: MatcherSingleWithTime,
		},
		{
			name:        "Dash before clock is not a range",
			dateText:    "July 5 - 7:00 PM",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.July, 5, 21, 0, 0),
			wantMatcher: MatcherSingleWithTime,
		},
		{
			name:        "Overnight clock range",
			dateText:    "July 5, 2024",
			timeText:    "10pm - 2am",
			wantStart:   at(2024, time.July, 5, 22, 0, 0),
			wantEnd:     at(2024, time.July, 6, 2, 0, 0),
			wantMatcher: MatcherSingleWithTime,
		},
		{
			name:        "Uppercase with ordinal",
			dateText:    "JULY 5TH 2024",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.July, 5, 21, 0, 0),
			wantMatcher: MatcherSingle,
		},
		{
			name:        "Weekday and abbreviation without year",
			dateText:    "Saturday, Aug. 3rd",
			wantStart:   at(2024, time.August, 3, 19, 0, 0),
			wantEnd:     at(2024, time.August, 3, 21, 0, 0),
			wantMatcher: MatcherSingle,
		},
		{
			name:        "Sept abbreviation",
			dateText:    "Sept 14, 2024",
			wantStart:   at(2024, time.September, 14, 19, 0, 0),
			wantEnd:     at(2024, time.September, 14, 21, 0, 0),
			wantMatcher: MatcherSingle,
		},
		{
			name:        "Day first",
			dateText:    "5 July 2024",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.July, 5, 21, 0, 0),
			wantMatcher: MatcherSingle,
		},
		{
			name:        "Leap day",
			dateText:    "February 29, 2024",
			wantStart:   at(2024, time.February, 29, 19, 0, 0),
			wantEnd:     at(2024, time.February, 29, 21, 0, 0),
			wantMatcher: MatcherSingle,
		},
		{
			name:        "Bare time is today",
			timeText:    "7pm",
			wantStart:   at(2024, time.March, 1, 19, 0, 0),
			wantEnd:     at(2024, time.March, 1, 21, 0, 0),
			wantMatcher: MatcherTimeOnly,
		},
		{
			name:        "Bare time inside words",
			dateText:    "Tonight at 8 pm",
			wantStart:   at(2024, time.March, 1, 20, 0, 0),
			wantEnd:     at(2024, time.March, 1, 22, 0, 0),
			wantMatcher: MatcherTimeOnly,
		},
		{
			name:        "ISO date",
			dateText:    "2024-07-05",
			wantStart:   at(2024, time.July, 5, 19, 0, 0),
			wantEnd:     at(2024, time.July, 5, 21, 0, 0),
			wantMatcher: MatcherFallback,
		},
		{
			name:        "ISO date time",
			dateText:    "2024-07-05T18:30:00",
			wantStart:   at(2024, time.July, 5, 18, 30, 0),
			wantEnd:     at(2024, time.July, 5, 20, 30, 0),
			wantMatcher: MatcherFallback,
		},
		{
			name:        "ISO date with space separated clock",
			dateText:    "2024-07-05 18:30",
			wantStart:   at(2024, time.July, 5, 18, 30, 0),
			wantEnd:     at(2024, time.July, 5, 20, 30, 0),
			wantMatcher: MatcherFallback,
		},
		{
			name:        "Slash format",
			dateText:    "02/15/26",
			wantStart:   at(2026, time.February, 15, 19, 0, 0),
			wantEnd:     at(2026, time.February, 15, 21, 0, 0),
			wantMatcher: MatcherFallback,
		},
		{
			name:        "Dot format",
			dateText:    "4.4.26",
			wantStart:   at(2026, time.April, 4, 19, 0, 0),
			wantEnd:     at(2026, time.April, 4, 21, 0, 0),
			wantMatcher: MatcherFallback,
		},
		{
			name:        "Numeric token inside text",
			dateText:    "Opening night 2024-09-12",
			wantStart:   at(2024, time.September, 12, 19, 0, 0),
			wantEnd:     at(2024, time.September, 12, 21, 0, 0),
			wantMatcher: MatcherFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.dateText, tt.timeText, concertDefaults())
			if !got.OK() {
				t.Fatalf("Parse(%q, %q) unparseable: %s", tt.dateText, tt.timeText, got.Reason)
			}
			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", got.End, tt.wantEnd)
			}
			if got.Matcher != tt.wantMatcher {
				t.Errorf("Matcher = %q, want %q", got.Matcher, tt.wantMatcher)
			}
		})
	}
}

func TestParse_Unparseable(t *testing.T) {
	tests := []struct {
		name       string
		dateText   string
		timeText   string
		wantReason string
	}{
		{"Empty", "", "", "empty date text"},
		{"Whitespace", "   \n ", "", "empty date text"},
		{"Words", "Not a date", "", "no pattern matched"},
		{"To be announced", "TBA", "", "no pattern matched"},
		{"Explicit years reversed", "Dec 28, 2025 - Jan 3, 2025", "", "end before start"},
		{"Reversed days in one month", "July 14 - 5, 2024", "", "end before start"},
		{"Reversed days without a year", "July 14 - 5", "", "end before start"},
		{"Same month repeated and reversed", "Mar 20 - Mar 2, 2024", "", "end before start"},
		{"Impossible day", "Feb 30, 2024", "", "invalid day of month"},
		{"Impossible day in range", "April 28 - 31, 2024", "", "invalid day of month"},
		{"Month without day and a clock", "July at 7pm", "", "no pattern matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.dateText, tt.timeText, concertDefaults())
			if got.OK() {
				t.Fatalf("Parse(%q) = %v - %v, want unparseable", tt.dateText, got.Start, got.End)
			}
			if got.Confidence != Unparseable {
				t.Errorf("Confidence = %q, want %q", got.Confidence, Unparseable)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if !got.Start.IsZero() || !got.End.IsZero() {
				t.Errorf("unparseable result carries dates: %v - %v", got.Start, got.End)
			}
		})
	}
}

func TestParse_Meridiem(t *testing.T) {
	tests := []struct {
		timeText string
		wantHour int
		wantMin  int
	}{
		{"12 am", 0, 0},
		{"12:30am", 0, 30},
		{"12pm", 12, 0},
		{"1 pm", 13, 0},
		{"7:45 p.m.", 19, 45},
		{"9 A.M.", 9, 0},
		{"19:00", 19, 0},
		{"noon", 12, 0},
		{"Midnight", 0, 0},
		{"7:00 - 9:00 PM", 19, 0},
		{"Doors 7:00, show 8:00 PM", 19, 0},
		{"9:30 - 4pm", 9, 30},
		{"7:00 - 9:00 AM", 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.timeText, func(t *testing.T) {
			got := Parse("March 10, 2024", tt.timeText, concertDefaults())
			if !got.OK() {
				t.Fatalf("unparseable: %s", got.Reason)
			}
			if got.Start.Hour() != tt.wantHour || got.Start.Minute() != tt.wantMin {
				t.Errorf("Start clock = %02d:%02d, want %02d:%02d",
					got.Start.Hour(), got.Start.Minute(), tt.wantHour, tt.wantMin)
			}
		})
	}
}

func TestParse_MonthNames(t *testing.T) {
	names := map[string]time.Month{
		"january": time.January, "Feb": time.February, "MAR": time.March,
		"April": time.April, "may": time.May, "Jun": time.June,
		"jul": time.July, "AUGUST": time.August, "sep": time.September,
		"Oct": time.October, "november": time.November, "Dec": time.December,
	}

	for name, want := range names {
		t.Run(name, func(t *testing.T) {
			got := Parse(name+" 9, 2025", "", concertDefaults())
			if !got.OK() {
				t.Fatalf("unparseable: %s", got.Reason)
			}
			if got.Start.Month() != want || got.Start.Day() != 9 || got.Start.Year() != 2025 {
				t.Errorf("Start = %v, want %s 9 2025", got.Start, want)
			}
		})
	}
}

func TestParse_DefaultReferenceYear(t *testing.T) {
	d := concertDefaults()
	d.Reference = time.Time{}

	got := Parse("Jan 24", "", d)
	if !got.OK() {
		t.Fatalf("unparseable: %s", got.Reason)
	}
	if got.Start.Year() != time.Now().Year() {
		t.Errorf("Year = %d, want %d", got.Start.Year(), time.Now().Year())
	}
}

func TestParse_AllDayPolicy(t *testing.T) {
	d := Defaults{StartTime: TimeOfDay{Hour: 10}, Duration: AllDayPolicy, Reference: testReference}

	got := Parse("June 1, 2024", "", d)
	if !got.OK() {
		t.Fatalf("unparseable: %s", got.Reason)
	}
	if want := at(2024, time.June, 1, 10, 0, 0); !got.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", got.Start, want)
	}
	if want := at(2024, time.June, 1, 23, 59, 59); !got.End.Equal(want) {
		t.Errorf("End = %v, want %v", got.End, want)
	}
}

func TestParse_ResultsAreNaive(t *testing.T) {
	got := Parse("2024-07-05T18:30:00-04:00", "", concertDefaults())
	if !got.OK() {
		t.Fatalf("unparseable: %s", got.Reason)
	}
	if got.Start.Location() != time.UTC {
		t.Errorf("Start location = %v, want UTC wall clock", got.Start.Location())
	}
	if got.Start.Hour() != 18 {
		t.Errorf("Start hour = %d, want wall clock 18", got.Start.Hour())
	}
}

func TestDefaultMatchers_Order(t *testing.T) {
	want := []string{
		MatcherRangeWithTime,
		MatcherRange,
		MatcherSingleWithTime,
		MatcherSingle,
		MatcherTimeOnly,
		MatcherFallback,
	}

	got := NewParser().Matchers()
	if len(got) != len(want) {
		t.Fatalf("Matchers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Matchers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

type stubMatcher struct {
	name   string
	result Result
	accept bool
}

func (s stubMatcher) Name() string { return s.name }

func (s stubMatcher) Match(*Input, Defaults) (Result, bool) { return s.result, s.accept }

func TestParser_FirstMatchWins(t *testing.T) {
	first := at(2024, time.May, 1, 10, 0, 0)
	second := at(2024, time.May, 2, 10, 0, 0)

	p := NewParser(
		stubMatcher{name: "declines"},
		stubMatcher{name: "first", accept: true, result: Result{Start: first, End: first, Confidence: Matched}},
		stubMatcher{name: "second", accept: true, result: Result{Start: second, End: second, Confidence: Matched}},
	)

	got := p.Parse("anything", "", concertDefaults())
	if got.Matcher != "first" || !got.Start.Equal(first) {
		t.Errorf("Parse() = %+v, want result of matcher \"first\"", got)
	}
}

func TestParser_RejectsEndBeforeStart(t *testing.T) {
	start := at(2024, time.May, 2, 10, 0, 0)
	p := NewParser(stubMatcher{
		name:   "broken",
		accept: true,
		result: Result{Start: start, End: start.Add(-time.Hour), Confidence: Matched},
	})

	got := p.Parse("anything", "", concertDefaults())
	if got.OK() {
		t.Fatalf("Parse() accepted end before start")
	}
	if got.Reason != "end before start" {
		t.Errorf("Reason = %q, want %q", got.Reason, "end before start")
	}
}

var monthNames = []string{"Jan", "February", "Mar", "April", "May", "Jun", "July", "Aug", "Sept", "Oct", "November", "Dec"}

// Every matched result must have start <= end and a span the phrase shape
// allows, whatever the inputs.
func TestParse_StartNotAfterEnd(t *testing.T) {
	d := concertDefaults()

	property := func(m1, m2, d1, d2, hour uint8, year uint16, shape uint8) bool {
		month1 := monthNames[int(m1)%len(monthNames)]
		month2 := monthNames[int(m2)%len(monthNames)]
		day1 := int(d1)%31 + 1
		day2 := int(d2)%31 + 1
		y := 2000 + int(year)%50
		h := int(hour)%12 + 1

		const dayLen = 24 * time.Hour
		var dateText, timeText string
		var maxSpan time.Duration
		switch shape % 6 {
		case 0:
			dateText = fmt.Sprintf("%s %d - %d, %d", month1, day1, day2, y)
			maxSpan = 32 * dayLen
		case 1:
			dateText = fmt.Sprintf("%s %d - %s %d", month1, day1, month2, day2)
			maxSpan = 366 * dayLen
		case 2:
			dateText = fmt.Sprintf("%s %d, %d - %s %d, %d", month1, day1, y, month2, day2, y+1)
			maxSpan = 732 * dayLen
		case 3:
			dateText = fmt.Sprintf("%s %d, %d", month1, day1, y)
			timeText = fmt.Sprintf("%dpm - %dam", h, h)
			maxSpan = dayLen
		case 4:
			dateText = fmt.Sprintf("%s: %d - %d %d", month1, day1, day2, y)
			timeText = fmt.Sprintf("%d:30 am", h)
			maxSpan = 32 * dayLen
		default:
			timeText = fmt.Sprintf("%d pm", h)
			maxSpan = dayLen
		}

		got := Parse(dateText, timeText, d)
		if !got.OK() {
			return got.Start.IsZero() && got.End.IsZero()
		}
		if got.End.Before(got.Start) {
			return false
		}
		return got.End.Sub(got.Start) <= maxSpan
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 2000}); err != nil {
		t.Error(err)
	}
}
