// Package source loads per-collector configuration: default venue, venue
// keywords, baseline categories and the date defaults used when a fragment
// leaves something out. Sources are explicit values handed to the pipeline,
// never package globals.
package source

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/event-ingest/internal/category"
	"github.com/pfrederiksen/event-ingest/internal/dateparse"
	"github.com/pfrederiksen/event-ingest/internal/event"
	"github.com/pfrederiksen/event-ingest/internal/venue"
)

// Validation errors
var (
	ErrNoSources             = errors.New("at least one source is required")
	ErrMissingID             = errors.New("id is required")
	ErrDuplicateID           = errors.New("id must be unique")
	ErrMissingDefaultVenue   = errors.New("default_venue.name is required")
	ErrInvalidVenue          = errors.New("venues entries need a keyword and a name")
	ErrMissingDefaultTime    = errors.New("default_time is required")
	ErrMissingDuration       = errors.New("duration is required")
	ErrIncompleteDuration    = errors.New("duration needs both single and multi_day")
	ErrUnknownDurationPreset = errors.New("unknown duration preset")
	ErrInvalidMinTitleLength = errors.New("min_title_length must be non-negative")
)

// Presets are the named duration policies a source can refer to
var Presets = map[string]dateparse.DurationPolicy{
	"concert": dateparse.ConcertPolicy,
	"all_day": dateparse.AllDayPolicy,
}

// Duration is a duration policy written either as a preset name or as an
// explicit {single, multi_day} mapping
type Duration struct {
	Policy dateparse.DurationPolicy
	Preset string
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		name := strings.ToLower(strings.TrimSpace(node.Value))
		p, ok := Presets[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDurationPreset, node.Value)
		}
		d.Policy, d.Preset = p, name
		return nil
	}

	var raw struct {
		Single   *dateparse.Span `yaml:"single"`
		MultiDay *dateparse.Span `yaml:"multi_day"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Single == nil || raw.MultiDay == nil {
		return ErrIncompleteDuration
	}
	d.Policy = dateparse.DurationPolicy{Single: *raw.Single, MultiDay: *raw.MultiDay}
	return nil
}

// MarshalYAML writes the preset name when there is one
func (d Duration) MarshalYAML() (interface{}, error) {
	if d.Preset != "" {
		return d.Preset, nil
	}
	return map[string]string{
		"single":    d.Policy.Single.String(),
		"multi_day": d.Policy.MultiDay.String(),
	}, nil
}

// Config describes one collector. Use it through a pointer; it caches its
// venue resolver and category rules on first use.
type Config struct {
	ID             string                 `yaml:"id"`
	Name           string                 `yaml:"name"`
	DefaultVenue   event.Venue            `yaml:"default_venue"`
	Venues         map[string]event.Venue `yaml:"venues"`
	Categories     []string               `yaml:"categories"`
	CategoryRules  category.Rules         `yaml:"category_rules"`
	DefaultTime    *dateparse.TimeOfDay   `yaml:"default_time"`
	Duration       *Duration              `yaml:"duration"`
	MinTitleLength int                    `yaml:"min_title_length"`

	once     sync.Once
	resolver *venue.Resolver
	rules    category.Rules
}

// Validate checks that every default the pipeline relies on is declared
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingID
	}
	if c.DefaultVenue.IsZero() {
		return fmt.Errorf("%w: source %q", ErrMissingDefaultVenue, c.ID)
	}
	for kw, v := range c.Venues {
		if strings.TrimSpace(kw) == "" || v.IsZero() {
			return fmt.Errorf("%w: source %q keyword %q", ErrInvalidVenue, c.ID, kw)
		}
	}
	if c.DefaultTime == nil {
		return fmt.Errorf("%w: source %q", ErrMissingDefaultTime, c.ID)
	}
	if c.Duration == nil {
		return fmt.Errorf("%w: source %q", ErrMissingDuration, c.ID)
	}
	if c.MinTitleLength < 0 {
		return fmt.Errorf("%w: source %q", ErrInvalidMinTitleLength, c.ID)
	}
	return nil
}

func (c *Config) prepare() {
	c.once.Do(func() {
		c.resolver = venue.NewResolver(venue.Keywords(c.Venues), c.DefaultVenue)
		c.rules = category.DefaultRules().Merge(c.CategoryRules)
	})
}

// Resolver returns the venue resolver built from the source's keywords
func (c *Config) Resolver() *venue.Resolver {
	c.prepare()
	return c.resolver
}

// Rules returns the default category rules extended with the source's own
func (c *Config) Rules() category.Rules {
	c.prepare()
	return c.rules
}

// DateDefaults returns the parser defaults for this source with the given
// reference day
func (c *Config) DateDefaults(reference time.Time) dateparse.Defaults {
	d := dateparse.Defaults{Reference: reference}
	if c.DefaultTime != nil {
		d.StartTime = *c.DefaultTime
	}
	if c.Duration != nil {
		d.Duration = c.Duration.Policy
	}
	return d
}

// DisplayName returns Name or the ID when no name is set
func (c *Config) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Registry holds validated source configurations keyed by ID
type Registry struct {
	sources map[string]*Config
}

type file struct {
	Sources []*Config `yaml:"sources"`
}

// NewRegistry validates and indexes the given sources
func NewRegistry(sources ...*Config) (*Registry, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	r := &Registry{sources: make(map[string]*Config, len(sources))}
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("%w: source[%d]", ErrMissingID, i)
		}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, dup := r.sources[src.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, src.ID)
		}
		src.prepare()
		r.sources[src.ID] = src
	}
	return r, nil
}

// Parse decodes a YAML document with a top-level "sources" list
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return NewRegistry(f.Sources...)
}

// Load reads and validates a source configuration file
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source config: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("source config %s: %w", path, err)
	}
	return r, nil
}

// Get returns the source with the given ID
func (r *Registry) Get(id string) (*Config, bool) {
	c, ok := r.sources[id]
	return c, ok
}

// IDs returns all source IDs in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of sources
func (r *Registry) Len() int {
	return len(r.sources)
}
