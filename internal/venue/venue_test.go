package venue

import (
	"testing"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

var (
	market       = event.Venue{Name: "St. Lawrence Market", Address: "93 Front St E", City: "Toronto", Region: "ON", Country: "Canada"}
	genericMkt   = event.Venue{Name: "Farmers Market Square", City: "Toronto"}
	masseyHall   = event.Venue{Name: "Massey Hall", Address: "178 Victoria St", City: "Toronto"}
	defaultVenue = event.Venue{Name: "Downtown Toronto", City: "Toronto", Region: "ON", Country: "Canada"}
)

func testKeywords() Keywords {
	return Keywords{
		"st. lawrence market": market,
		"market":              genericMkt,
		"massey hall":         masseyHall,
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		location    string
		title       string
		description string
		want        string
	}{
		{
			name:     "Punctuation and case ignored",
			location: "St Lawrence Market",
			want:     market.Name,
		},
		{
			name:     "Longest keyword wins",
			location: "South Hall, ST. LAWRENCE MARKET",
			want:     market.Name,
		},
		{
			name:     "Short keyword alone",
			location: "The market on Front",
			want:     genericMkt.Name,
		},
		{
			name:     "Word boundary required",
			location: "Supermarkets downtown",
			want:     defaultVenue.Name,
		},
		{
			name:     "Possessive suffix",
			location: "St. Lawrence Market's North Hall",
			want:     market.Name,
		},
		{
			name:     "Plural suffix",
			location: "st lawrence markets",
			want:     market.Name,
		},
		{
			name:     "Possessive hall",
			location: "Massey Hall's lobby",
			want:     masseyHall.Name,
		},
		{
			name:        "Title and description when location is empty",
			title:       "Jazz night",
			description: "Live at Massey Hall this Friday",
			want:        masseyHall.Name,
		},
		{
			name:        "Location beats description",
			location:    "Massey Hall",
			description: "After party at the St. Lawrence Market",
			want:        masseyHall.Name,
		},
		{
			name:     "Unknown location falls back to default",
			location: "Somewhere else entirely",
			want:     defaultVenue.Name,
		},
		{
			name: "Everything empty",
			want: defaultVenue.Name,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.location, tt.title, tt.description, testKeywords(), defaultVenue)
			if got.Name != tt.want {
				t.Errorf("Resolve() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestResolve_FullRecord(t *testing.T) {
	got := NewResolver(testKeywords(), defaultVenue).Resolve("St Lawrence Market", "", "")
	if got != market {
		t.Errorf("Resolve() = %+v, want %+v", got, market)
	}
}

func TestResolver_TieBreaksAlphabetically(t *testing.T) {
	a := event.Venue{Name: "Alpha"}
	b := event.Venue{Name: "Bravo"}
	r := NewResolver(Keywords{"bravo hall": b, "alpha hall": a}, defaultVenue)

	got, ok := r.Find("alpha hall and bravo hall")
	if !ok {
		t.Fatal("Find() found nothing")
	}
	if got.Name != "Alpha" {
		t.Errorf("Find() = %q, want %q", got.Name, "Alpha")
	}
}

func TestResolver_NoKeywords(t *testing.T) {
	r := NewResolver(nil, defaultVenue)
	if got := r.Resolve("Massey Hall", "", ""); got != defaultVenue {
		t.Errorf("Resolve() = %+v, want default", got)
	}
	if r.Default() != defaultVenue {
		t.Errorf("Default() = %+v, want %+v", r.Default(), defaultVenue)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"St. Lawrence Market", "st lawrence market"},
		{"  Roy   Thomson\tHall ", "roy thomson hall"},
		{"Queen's Park", "queens park"},
		{"Harbourfront Centre (Main Stage)", "harbourfront centre main stage"},
		{"...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
