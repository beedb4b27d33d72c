package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/event-ingest/internal/dateparse"
)

// ErrInvalidDateRange is returned when a date range phrase cannot be read
var ErrInvalidDateRange = errors.New("invalid date range format. Use 'Mar 1-15', 'March 1 - April 15', '2026-03-01' or 'March'")

var monthOnlyPattern = regexp.MustCompile(`(?i)^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)\.?(?:\s+(\d{4}))?$`)

// allDay parses a phrase as whole days: midnight to 23:59:59
func allDay(reference time.Time) dateparse.Defaults {
	return dateparse.Defaults{Duration: dateparse.AllDayPolicy, Reference: reference}
}

// ParseDateRange parses a date range phrase into its first and last instant.
//
// Supported formats:
//   - "Mar 1-15" or "March 1 - April 15", any range the ingest parser reads
//   - "2026-03-01" or "July 5", a single day
//   - "March" or "March 2027", the entire month
//
// A missing year is taken from reference. Start is at 00:00:00 and end
// at 23:59:59.
func ParseDateRange(input string, reference time.Time) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}
	if reference.IsZero() {
		reference = time.Now()
	}

	if m := monthOnlyPattern.FindStringSubmatch(input); m != nil {
		month := monthNumber(m[1])
		year := reference.Year()
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		}
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
		return &from, &to, nil
	}

	res := dateparse.Parse(input, "", allDay(reference))
	if !res.OK() {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDateRange, res.Reason)
	}
	from, to := res.Start, res.End
	return &from, &to, nil
}

// ParseBound parses one side of a range. The start of the phrase is used
// for a lower bound and its end for an upper bound.
func ParseBound(input string, reference time.Time, upper bool) (*time.Time, error) {
	from, to, err := ParseDateRange(input, reference)
	if err != nil {
		return nil, err
	}
	if upper {
		return to, nil
	}
	return from, nil
}

func monthNumber(name string) time.Month {
	name = strings.ToLower(name)
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), name[:3]) {
			return m
		}
	}
	return 0
}
