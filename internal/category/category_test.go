package category

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		baseline    []string
		want        []string
	}{
		{
			name:     "Baseline only",
			title:    "Council update",
			baseline: []string{"Community", "brampton"},
			want:     []string{"brampton", "community"},
		},
		{
			name:        "Keywords from title and description",
			title:       "Outdoor Movie Night",
			description: "Bring the kids to the park",
			want:        []string{"family", "film", "outdoor"},
		},
		{
			name:     "Baseline and keyword overlap deduplicated",
			title:    "Summer Music Festival",
			baseline: []string{"music", " MUSIC "},
			want:     []string{"festival", "music"},
		},
		{
			name:  "Case insensitive",
			title: "FOOD TRUCK RALLY",
			want:  []string{"food"},
		},
		{
			name: "Nothing at all",
			want: []string{},
		},
		{
			name:     "Blank baseline entries dropped",
			baseline: []string{"", "  "},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.title, tt.description, tt.baseline)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_BaselineAlwaysIncluded(t *testing.T) {
	baseline := []string{"toronto", "waterfront"}
	got := DefaultRules().Classify("Concert in the park", "", baseline)

	seen := make(map[string]bool)
	for _, c := range got {
		seen[c] = true
	}
	for _, c := range baseline {
		if !seen[c] {
			t.Errorf("Classify() = %v, missing baseline %q", got, c)
		}
	}
}

func TestRules_Merge(t *testing.T) {
	base := Rules{"music": {"concert"}}
	merged := base.Merge(Rules{"music": {"gig"}, "tour": {"guided"}})

	if got := merged.Classify("Sunday gig", "", nil); !reflect.DeepEqual(got, []string{"music"}) {
		t.Errorf("merged Classify() = %v, want [music]", got)
	}
	if got := merged.Classify("Guided walk", "", nil); !reflect.DeepEqual(got, []string{"tour"}) {
		t.Errorf("merged Classify() = %v, want [tour]", got)
	}
	if len(base["music"]) != 1 {
		t.Errorf("Merge() modified the receiver: %v", base)
	}
}
