// Package calendar exports stored events as iCalendar documents.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

// ProductID identifies the exporter in PRODID
const ProductID = "-//event-ingest//event-ingest//EN"

// floatingLayout writes a wall-clock time without zone, matching how
// events are stored
const floatingLayout = "20060102T150405"

// Options tunes an export
type Options struct {
	// Name is written as X-WR-CALNAME when set
	Name string
	// Now stamps DTSTAMP; zero means time.Now
	Now time.Time
}

// Build creates a calendar holding one VEVENT per event
func Build(events []*event.Event, opts Options) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ics.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	for _, evt := range events {
		addEvent(cal, evt, now.UTC())
	}
	return cal
}

func addEvent(cal *ics.Calendar, evt *event.Event, stamp time.Time) {
	ve := cal.AddEvent(evt.ID + "@event-ingest")
	ve.SetDtStampTime(stamp)
	if !evt.LastUpdated.IsZero() {
		ve.SetModifiedAt(evt.LastUpdated.UTC())
	}

	// Stored times are naive wall clocks, so they are written floating
	ve.SetProperty(ics.ComponentPropertyDtStart, evt.StartDate.Format(floatingLayout))
	ve.SetProperty(ics.ComponentPropertyDtEnd, evt.EndDate.Format(floatingLayout))

	ve.SetSummary(evt.Title)
	ve.SetDescription(description(evt))
	ve.SetLocation(location(evt.Venue))
	if evt.SourceURL != "" {
		ve.SetURL(evt.SourceURL)
	}
	if len(evt.Categories) > 0 {
		ve.SetProperty(ics.ComponentPropertyCategories, strings.Join(evt.Categories, ","))
	}
	if c := evt.Venue.Coordinates; c.Latitude != 0 || c.Longitude != 0 {
		ve.SetProperty(ics.ComponentPropertyGeo, fmt.Sprintf("%.6f;%.6f", c.Latitude, c.Longitude))
	}
	ve.SetStatus(ics.ObjectStatusConfirmed)
}

func description(evt *event.Event) string {
	var parts []string
	if evt.Description != "" {
		parts = append(parts, evt.Description)
	}
	if evt.Price != "" {
		parts = append(parts, "Price: "+evt.Price)
	}
	return strings.Join(parts, "\n\n")
}

func location(v event.Venue) string {
	parts := []string{v.Name}
	for _, p := range []string{v.Address, v.City, v.Region} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Export writes events as one iCalendar document
func Export(w io.Writer, events []*event.Event, opts Options) error {
	if _, err := io.WriteString(w, Build(events, opts).Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// GenerateICS generates an iCalendar document for a single event
func GenerateICS(evt *event.Event) string {
	return Build([]*event.Event{evt}, Options{}).Serialize()
}
