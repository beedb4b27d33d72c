package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/event-ingest/internal/dateparse"
)

const validYAML = `
sources:
  - id: massey-hall
    name: Massey Hall
    default_venue:
      name: Massey Hall
      city: Toronto
    categories: [music]
    default_time: "7pm"
    duration: concert
  - id: st-lawrence
    default_venue:
      name: Downtown Toronto
    venues:
      st. lawrence market:
        name: St. Lawrence Market
        address: 93 Front St E
    category_rules:
      tour: [guided]
    default_time: "09:30"
    duration:
      single: 90m
      multi_day: end_of_day
    min_title_length: 5
`

func createTempSourceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	reg, err := Load(createTempSourceFile(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	if got := reg.IDs(); got[0] != "massey-hall" || got[1] != "st-lawrence" {
		t.Errorf("IDs() = %v", got)
	}

	massey, ok := reg.Get("massey-hall")
	if !ok {
		t.Fatal("Get(massey-hall) not found")
	}
	if massey.Duration.Policy != dateparse.ConcertPolicy {
		t.Errorf("Duration = %+v, want concert preset", massey.Duration.Policy)
	}
	if *massey.DefaultTime != (dateparse.TimeOfDay{Hour: 19}) {
		t.Errorf("DefaultTime = %v, want 19:00", massey.DefaultTime)
	}

	market, _ := reg.Get("st-lawrence")
	if market.DisplayName() != "st-lawrence" {
		t.Errorf("DisplayName() = %q, want id fallback", market.DisplayName())
	}
	if market.Duration.Policy.Single != dateparse.FixedSpan(90*time.Minute) {
		t.Errorf("Single = %v, want 1h30m0s", market.Duration.Policy.Single)
	}
	if market.MinTitleLength != 5 {
		t.Errorf("MinTitleLength = %d, want 5", market.MinTitleLength)
	}

	if _, ok := reg.Get("unknown"); ok {
		t.Error("Get(unknown) found a source")
	}
}

func TestConfig_Resolver(t *testing.T) {
	reg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	market, _ := reg.Get("st-lawrence")

	if got := market.Resolver().Resolve("St Lawrence Market", "", ""); got.Address != "93 Front St E" {
		t.Errorf("Resolve() = %+v, want the market address", got)
	}
	if got := market.Resolver().Resolve("Nathan Phillips Square", "", ""); got.Name != "Downtown Toronto" {
		t.Errorf("Resolve() = %+v, want default venue", got)
	}
}

func TestConfig_Rules(t *testing.T) {
	reg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	market, _ := reg.Get("st-lawrence")

	got := market.Rules().Classify("Guided food walk", "", nil)
	want := map[string]bool{"tour": true, "food": true}
	if len(got) != len(want) {
		t.Fatalf("Classify() = %v, want %v", got, want)
	}
	for _, c := range got {
		if !want[c] {
			t.Errorf("unexpected category %q", c)
		}
	}
}

func TestConfig_DateDefaults(t *testing.T) {
	reg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	massey, _ := reg.Get("massey-hall")
	ref := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	d := massey.DateDefaults(ref)
	if d.StartTime != (dateparse.TimeOfDay{Hour: 19}) || d.Duration != dateparse.ConcertPolicy || !d.Reference.Equal(ref) {
		t.Errorf("DateDefaults() = %+v", d)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "No sources",
			yaml:    "sources: []\n",
			wantErr: ErrNoSources,
		},
		{
			name: "Missing id",
			yaml: `
sources:
  - default_venue: {name: Hall}
    default_time: "7pm"
    duration: concert
`,
			wantErr: ErrMissingID,
		},
		{
			name: "Duplicate id",
			yaml: `
sources:
  - {id: a, default_venue: {name: Hall}, default_time: "7pm", duration: concert}
  - {id: a, default_venue: {name: Hall}, default_time: "7pm", duration: concert}
`,
			wantErr: ErrDuplicateID,
		},
		{
			name: "Missing default venue",
			yaml: `
sources:
  - {id: a, default_time: "7pm", duration: concert}
`,
			wantErr: ErrMissingDefaultVenue,
		},
		{
			name: "Keyword venue without name",
			yaml: `
sources:
  - id: a
    default_venue: {name: Hall}
    venues:
      side room: {address: 1 Main St}
    default_time: "7pm"
    duration: concert
`,
			wantErr: ErrInvalidVenue,
		},
		{
			name: "Missing default time",
			yaml: `
sources:
  - {id: a, default_venue: {name: Hall}, duration: concert}
`,
			wantErr: ErrMissingDefaultTime,
		},
		{
			name: "Missing duration",
			yaml: `
sources:
  - {id: a, default_venue: {name: Hall}, default_time: "7pm"}
`,
			wantErr: ErrMissingDuration,
		},
		{
			name: "Unknown preset",
			yaml: `
sources:
  - {id: a, default_venue: {name: Hall}, default_time: "7pm", duration: forever}
`,
			wantErr: ErrUnknownDurationPreset,
		},
		{
			name: "Incomplete duration",
			yaml: `
sources:
  - {id: a, default_venue: {name: Hall}, default_time: "7pm", duration: {single: 2h}}
`,
			wantErr: ErrIncompleteDuration,
		},
		{
			name: "Negative title length",
			yaml: `
sources:
  - {id: a, default_venue: {name: Hall}, default_time: "7pm", duration: concert, min_title_length: -1}
`,
			wantErr: ErrInvalidMinTitleLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file returned nil error")
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	reg, err := Load(filepath.Join("..", "..", "configs", "sources.yaml"))
	if err != nil {
		t.Fatalf("Load(configs/sources.yaml) error = %v", err)
	}
	for _, id := range []string{"brampton", "st-lawrence", "massey-hall"} {
		if _, ok := reg.Get(id); !ok {
			t.Errorf("shipped config lacks source %q", id)
		}
	}
}
