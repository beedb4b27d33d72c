// Package filter narrows stored events for listing and export.
//
// Criteria combine with AND; values inside one criterion combine with OR.
//   - Date range: events overlapping DateFrom..DateTo (inclusive)
//   - Categories: exact category label, case-insensitive
//   - Venues: venue name substring, case-insensitive
//   - Sources: exact source id
//   - Search: title or description substring, case-insensitive
//   - FreeOnly: price is the "Free" label
//   - WeekendsOnly: the event touches a Saturday or Sunday
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Categories = []string{"music"}
//	f.FreeOnly = true
//	upcoming := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Categories []string `json:"categories,omitempty"`
	Venues     []string `json:"venues,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Search     string   `json:"search,omitempty"`

	FreeOnly     bool `json:"free_only,omitempty"`
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty checks if the filter has any active criteria
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Categories) == 0 &&
		len(f.Venues) == 0 &&
		len(f.Sources) == 0 &&
		strings.TrimSpace(f.Search) == "" &&
		!f.FreeOnly &&
		!f.WeekendsOnly
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	// Overlap rather than containment so a running festival still shows
	if f.DateFrom != nil && evt.EndDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && evt.StartDate.After(*f.DateTo) {
		return false
	}

	if f.WeekendsOnly && !touchesWeekend(evt.StartDate, evt.EndDate) {
		return false
	}

	if f.FreeOnly && !evt.IsFree() {
		return false
	}

	if len(f.Categories) > 0 && !anyCategory(evt.Categories, f.Categories) {
		return false
	}

	if len(f.Venues) > 0 && !anySubstring(evt.Venue.Name, f.Venues) {
		return false
	}

	if len(f.Sources) > 0 {
		matched := false
		for _, id := range f.Sources {
			if evt.SourceID == id {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if q := strings.TrimSpace(f.Search); q != "" {
		if !anySubstring(evt.Title, []string{q}) && !anySubstring(evt.Description, []string{q}) {
			return false
		}
	}

	return true
}

func anyCategory(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}

func anySubstring(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(n))) {
			return true
		}
	}
	return false
}

// touchesWeekend reports whether any calendar day from start to end is a
// Saturday or Sunday
func touchesWeekend(start, end time.Time) bool {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for i := 0; i < 7 && !day.After(end); i++ {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return true
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

// Apply applies the filter to a list of events and returns only matching events.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	var filtered []*event.Event
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Jan 2, 2026 | To: Jan 15, 2026 | Categories: music | Free only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(f.Categories, ", ")))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}
	if len(f.Sources) > 0 {
		parts = append(parts, fmt.Sprintf("Sources: %s", strings.Join(f.Sources, ", ")))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		parts = append(parts, fmt.Sprintf("Search: %q", q))
	}
	if f.FreeOnly {
		parts = append(parts, "Free only")
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter
func (f *Filter) Clone() *Filter {
	clone := *f

	if f.DateFrom != nil {
		df := *f.DateFrom
		clone.DateFrom = &df
	}
	if f.DateTo != nil {
		dt := *f.DateTo
		clone.DateTo = &dt
	}
	clone.Categories = append([]string(nil), f.Categories...)
	clone.Venues = append([]string(nil), f.Venues...)
	clone.Sources = append([]string(nil), f.Sources...)

	return &clone
}
