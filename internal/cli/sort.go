package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByVenue SortOrder = "venue"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByDate, SortByTitle, SortByVenue:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort: %s (must be 'date', 'title' or 'venue')", s)
}

// sortEvents sorts a slice of events based on the specified sort order
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByVenue:
		sort.SliceStable(events, func(i, j int) bool {
			vi, vj := strings.ToLower(events[i].Venue.Name), strings.ToLower(events[j].Venue.Name)
			if vi != vj {
				return vi < vj
			}
			return compareByDate(events[i], events[j])
		})
	}
}

// compareByDate orders by start, then end, then title, then id
func compareByDate(i, j *event.Event) bool {
	if !i.StartDate.Equal(j.StartDate) {
		return i.StartDate.Before(j.StartDate)
	}
	if !i.EndDate.Equal(j.EndDate) {
		return i.EndDate.Before(j.EndDate)
	}
	if ti, tj := strings.ToLower(i.Title), strings.ToLower(j.Title); ti != tj {
		return ti < tj
	}
	return i.ID < j.ID
}
