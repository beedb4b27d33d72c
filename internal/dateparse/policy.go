package dateparse

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeOfDay is the baseline start clock used when a phrase names only a date
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Clock converts the baseline into a Clock
func (t TimeOfDay) Clock() Clock {
	return Clock(t)
}

func (t TimeOfDay) String() string {
	return Clock(t).String()
}

// UnmarshalYAML accepts "19:00", "7pm" or "10:30 am"
func (t *TimeOfDay) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Span derives an end instant from a start instant. It is either a fixed
// length or "end of day" (23:59:59 on the day of the start instant).
type Span struct {
	Length   time.Duration
	EndOfDay bool
}

// EndOfDaySpan ends an event at the last second of its final day
var EndOfDaySpan = Span{EndOfDay: true}

// FixedSpan ends an event a fixed length after it starts
func FixedSpan(d time.Duration) Span {
	return Span{Length: d}
}

// From returns the end instant for an event whose final day starts at t
func (s Span) From(t time.Time) time.Time {
	if s.EndOfDay {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	}
	return t.Add(s.Length)
}

func (s Span) String() string {
	if s.EndOfDay {
		return "end_of_day"
	}
	return s.Length.String()
}

// ParseSpan parses "end_of_day" or a Go duration such as "2h" or "90m"
func ParseSpan(s string) (Span, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "end_of_day", "end-of-day", "eod":
		return EndOfDaySpan, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return Span{}, fmt.Errorf("invalid span %q: %w", s, err)
	}
	if d < 0 {
		return Span{}, fmt.Errorf("invalid span %q: negative duration", s)
	}
	return FixedSpan(d), nil
}

// UnmarshalYAML accepts the forms understood by ParseSpan
func (s *Span) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseSpan(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DurationPolicy decides how an event ends when the text gives no end clock.
// Single applies to one-day events, MultiDay to date ranges.
type DurationPolicy struct {
	Single   Span `yaml:"single"`
	MultiDay Span `yaml:"multi_day"`
}

// Common policies shared by source configurations
var (
	// ConcertPolicy fits performance venues: two hours, ranges run to end of day
	ConcertPolicy = DurationPolicy{Single: FixedSpan(2 * time.Hour), MultiDay: EndOfDaySpan}
	// AllDayPolicy fits exhibitions and attractions
	AllDayPolicy = DurationPolicy{Single: EndOfDaySpan, MultiDay: EndOfDaySpan}
)

// Defaults carries the per-source values the parser falls back on
type Defaults struct {
	// StartTime is used when a date is given without a clock
	StartTime TimeOfDay
	// Duration derives the end when no end clock is given
	Duration DurationPolicy
	// Reference is "today" for bare clocks and supplies the year when no
	// year is given. Zero means the current wall clock.
	Reference time.Time
}

func (d Defaults) reference() time.Time {
	ref := d.Reference
	if ref.IsZero() {
		ref = time.Now()
	}
	return Naive(ref)
}

// Naive drops the zone of t while keeping its wall clock reading
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// day returns midnight of the given calendar date as a naive time
func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
