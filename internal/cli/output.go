package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pfrederiksen/event-ingest/internal/event"
	"github.com/pfrederiksen/event-ingest/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

const displayLayout = "Mon Jan 2 2006 15:04"

// maxTitleWidth truncates long titles in the list table
const maxTitleWidth = 40

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteReport writes a batch report in the specified format
func WriteReport(w io.Writer, report *pipeline.Report, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		fmt.Fprintln(w, report.String())
		if len(report.Flags) == 0 {
			return nil
		}
		fmt.Fprintf(w, "\nNeeds review (%d):\n", len(report.Flags))
		for _, f := range report.Flags {
			fmt.Fprintf(w, "  #%d [%s] %s: %s\n", f.Index, f.SourceID, f.Outcome, f.Reason)
			if f.Title != "" {
				fmt.Fprintf(w, "       Title: %s\n", f.Title)
			}
			if f.DateText != "" {
				fmt.Fprintf(w, "       Date: %s\n", f.DateText)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteEvents writes a list of events in the specified format
func WriteEvents(w io.Writer, events []*event.Event, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if events == nil {
			events = []*event.Event{}
		}
		return writeJSON(w, events)
	case FormatText:
		if len(events) == 0 {
			fmt.Fprintln(w, "No events found.")
			return nil
		}
		rows := [][]string{{"ID", "START", "TITLE", "VENUE", "PRICE"}}
		for _, evt := range events {
			rows = append(rows, []string{
				shortID(evt.ID),
				evt.StartDate.Format(displayLayout),
				runewidth.Truncate(evt.Title, maxTitleWidth, "…"),
				evt.Venue.Name,
				evt.Price,
			})
		}
		for _, line := range formatTable(rows) {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintf(w, "\nTotal: %d events\n", len(events))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteEvent writes one event with all of its fields
func WriteEvent(w io.Writer, evt *event.Event, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, evt)
	}

	fmt.Fprintf(w, "%s\n", evt.Title)
	fmt.Fprintf(w, "  ID:         %s\n", evt.ID)
	fmt.Fprintf(w, "  Starts:     %s\n", evt.StartDate.Format(displayLayout))
	fmt.Fprintf(w, "  Ends:       %s\n", evt.EndDate.Format(displayLayout))
	fmt.Fprintf(w, "  Venue:      %s\n", evt.Venue.Name)
	if evt.Venue.Address != "" {
		fmt.Fprintf(w, "  Address:    %s\n", evt.Venue.Address)
	}
	fmt.Fprintf(w, "  Price:      %s\n", evt.Price)
	if len(evt.Categories) > 0 {
		fmt.Fprintf(w, "  Categories: %s\n", strings.Join(evt.Categories, ", "))
	}
	fmt.Fprintf(w, "  Source:     %s\n", evt.SourceID)
	if evt.SourceURL != "" {
		fmt.Fprintf(w, "  URL:        %s\n", evt.SourceURL)
	}
	fmt.Fprintf(w, "  First seen: %s\n", evt.FirstSeen.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Updated:    %s\n", evt.LastUpdated.Format("2006-01-02 15:04:05"))
	if evt.Description != "" {
		fmt.Fprintf(w, "\n%s\n", evt.Description)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// formatTable pads every column to its widest cell by display width, so
// wide runes in titles keep the columns aligned
func formatTable(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}

	colWidths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for i := 0; i < len(colWidths); i++ {
			content := ""
			if i < len(row) {
				content = row[i]
			}
			if i == len(colWidths)-1 {
				sb.WriteString(content)
				break
			}
			sb.WriteString(runewidth.FillRight(content, colWidths[i]))
			sb.WriteString("  ")
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return lines
}
