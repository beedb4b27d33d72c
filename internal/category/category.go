// Package category infers event tags from title and description keywords.
package category

import (
	"sort"
	"strings"
)

// Rules maps a category to the keywords that imply it
type Rules map[string][]string

// DefaultRules returns the keyword table shared by most collectors. The
// returned map is a fresh copy and may be modified.
func DefaultRules() Rules {
	return Rules{
		"film":     {"movie", "film", "cinema", "screening"},
		"workshop": {"workshop", "learn", "education", "class", "seminar"},
		"music":    {"concert", "music", "band", "orchestra", "symphony", "dj"},
		"art":      {"art", "exhibition", "gallery"},
		"market":   {"market", "fair", "vendor"},
		"sports":   {"sport", "game", "tournament", "race", "fitness"},
		"family":   {"kids", "children", "family", "all ages"},
		"outdoor":  {"outdoor", "park", "trail"},
		"food":     {"food", "taste", "tasting", "culinary"},
		"business": {"business", "entrepreneur", "networking"},
		"theatre":  {"theatre", "theater", "play", "musical"},
		"comedy":   {"comedy", "stand-up", "improv"},
		"festival": {"festival", "celebration"},
		"holiday":  {"holiday", "christmas", "halloween", "new year"},
		"dance":    {"dance", "ballet"},
	}
}

// Merge returns a copy of r extended with extra. Keywords for a category in
// both tables are combined.
func (r Rules) Merge(extra Rules) Rules {
	out := make(Rules, len(r)+len(extra))
	for c, kws := range r {
		out[c] = append([]string(nil), kws...)
	}
	for c, kws := range extra {
		out[c] = append(out[c], kws...)
	}
	return out
}

// Classify returns baseline unioned with every category whose keywords occur
// in title or description, lowercased, deduplicated and sorted
func (r Rules) Classify(title, description string, baseline []string) []string {
	text := strings.ToLower(title + " " + description)

	set := make(map[string]bool, len(baseline))
	for _, c := range baseline {
		if c = normalize(c); c != "" {
			set[c] = true
		}
	}

	for c, keywords := range r {
		c = normalize(c)
		if c == "" || set[c] {
			continue
		}
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				set[c] = true
				break
			}
		}
	}

	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Classify runs the default rules
func Classify(title, description string, baseline []string) []string {
	return DefaultRules().Classify(title, description, baseline)
}

func normalize(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
