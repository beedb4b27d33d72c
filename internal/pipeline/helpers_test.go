package pipeline

import (
	"testing"
	"time"

	"github.com/pfrederiksen/event-ingest/internal/dateparse"
	"github.com/pfrederiksen/event-ingest/internal/event"
	"github.com/pfrederiksen/event-ingest/internal/source"
)

var (
	reference = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

	harbourfront = event.Venue{Name: "Harbourfront Centre", Address: "235 Queens Quay W", City: "Toronto"}
	lawrence     = event.Venue{Name: "St. Lawrence Market", Address: "93 Front St E", City: "Toronto"}
	downtown     = event.Venue{Name: "Downtown Toronto", City: "Toronto"}
)

func fixedReference() time.Time { return reference }

func testSources(t *testing.T) *source.Registry {
	t.Helper()
	venues := map[string]event.Venue{
		"harbourfront centre": harbourfront,
		"st. lawrence market": lawrence,
	}
	reg, err := source.NewRegistry(
		&source.Config{
			ID:           "waterfront",
			DefaultVenue: downtown,
			Venues:       venues,
			Categories:   []string{"toronto"},
			DefaultTime:  &dateparse.TimeOfDay{Hour: 19},
			Duration:     &source.Duration{Policy: dateparse.ConcertPolicy},
		},
		&source.Config{
			ID:             "city-listings",
			DefaultVenue:   downtown,
			Venues:         venues,
			Categories:     []string{"community"},
			DefaultTime:    &dateparse.TimeOfDay{Hour: 10},
			Duration:       &source.Duration{Policy: dateparse.AllDayPolicy},
			MinTitleLength: 5,
		},
	)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func mustSource(t *testing.T, reg *source.Registry, id string) *source.Config {
	t.Helper()
	src, ok := reg.Get(id)
	if !ok {
		t.Fatalf("source %q missing", id)
	}
	return src
}
