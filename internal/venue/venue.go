// Package venue maps free-text location phrases onto known venue records.
package venue

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

// Keywords maps a lookup phrase to the venue it identifies
type Keywords map[string]event.Venue

type entry struct {
	key   string
	venue event.Venue
}

// Resolver looks venues up by keyword and falls back to a default venue.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	entries  []entry
	fallback event.Venue
}

// NewResolver indexes keywords, longest first so a specific phrase such as
// "st. lawrence market" beats a generic one such as "market"
func NewResolver(keywords Keywords, fallback event.Venue) *Resolver {
	entries := make([]entry, 0, len(keywords))
	for kw, v := range keywords {
		key := Normalize(kw)
		if key == "" {
			continue
		}
		entries = append(entries, entry{key: key, venue: v})
	}

	sort.Slice(entries, func(i, j int) bool {
		li, lj := len([]rune(entries[i].key)), len([]rune(entries[j].key))
		if li != lj {
			return li > lj
		}
		return entries[i].key < entries[j].key
	})

	return &Resolver{entries: entries, fallback: fallback}
}

// Resolve tries the location text, then title and description together,
// then returns the default venue
func (r *Resolver) Resolve(locationText, title, description string) event.Venue {
	if v, ok := r.Find(locationText); ok {
		return v
	}
	if v, ok := r.Find(title + " " + description); ok {
		return v
	}
	return r.fallback
}

// Find returns the venue of the longest keyword present in text. A keyword
// must start on a word boundary but may run into a suffix, so possessive and
// plural forms still match.
func (r *Resolver) Find(text string) (event.Venue, bool) {
	norm := Normalize(text)
	if norm == "" {
		return event.Venue{}, false
	}
	padded := " " + norm
	for _, e := range r.entries {
		if strings.Contains(padded, " "+e.key) {
			return e.venue, true
		}
	}
	return event.Venue{}, false
}

// Default returns the fallback venue
func (r *Resolver) Default() event.Venue {
	return r.fallback
}

// Resolve is a one-shot helper for callers that do not keep a Resolver
func Resolve(locationText, title, description string, keywords Keywords, fallback event.Venue) event.Venue {
	return NewResolver(keywords, fallback).Resolve(locationText, title, description)
}

// Normalize lowercases s, turns punctuation into spaces and collapses
// whitespace, so "St. Lawrence Market" and "st lawrence market" compare equal
func Normalize(s string) string {
	folded := strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(folded), " ")
}
