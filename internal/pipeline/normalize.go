package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/event-ingest/internal/dateparse"
	"github.com/pfrederiksen/event-ingest/internal/event"
	"github.com/pfrederiksen/event-ingest/internal/metrics"
	"github.com/pfrederiksen/event-ingest/internal/price"
	"github.com/pfrederiksen/event-ingest/internal/source"
)

var (
	// ErrMissingTitle means the fragment has no usable title
	ErrMissingTitle = errors.New("missing title")
	// ErrUnparseableDate means no date pattern matched the fragment
	ErrUnparseableDate = errors.New("unparseable date")
	// ErrUnknownSource means the fragment names a source with no configuration
	ErrUnknownSource = errors.New("unknown source")
)

// Normalizer assembles canonical events from fragments. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	parser  *dateparse.Parser
	now     func() time.Time
	metrics *metrics.Metrics
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithReference fixes "today" for bare clocks and missing years
func WithReference(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

// WithParser replaces the default date cascade
func WithParser(p *dateparse.Parser) NormalizerOption {
	return func(n *Normalizer) { n.parser = p }
}

// WithMetrics counts the date matcher that decided each fragment
func WithMetrics(m *metrics.Metrics) NormalizerOption {
	return func(n *Normalizer) { n.metrics = m }
}

// NewNormalizer creates a Normalizer with the default date cascade
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{parser: dateparse.NewParser(), now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ParseDate runs the date cascade with the defaults of src
func (n *Normalizer) ParseDate(dateText, timeText string, src *source.Config) dateparse.Result {
	res := n.parser.Parse(event.CleanText(dateText), event.CleanText(timeText), src.DateDefaults(n.now()))
	n.metrics.DateMatch(res.Matcher)
	return res
}

// Normalize turns f into a validated event using the configuration of src.
// Expected failures are reported as ErrUnknownSource, ErrMissingTitle or
// ErrUnparseableDate.
func (n *Normalizer) Normalize(f event.Fragment, src *source.Config) (*event.Event, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, f.SourceID)
	}

	title := event.CleanText(f.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	if utf8.RuneCountInString(title) < src.MinTitleLength {
		return nil, fmt.Errorf("%w: %q is shorter than %d characters", ErrMissingTitle, title, src.MinTitleLength)
	}

	date := n.ParseDate(f.DateText, f.TimeText, src)
	if !date.OK() {
		return nil, fmt.Errorf("%w: %s", ErrUnparseableDate, date.Reason)
	}

	description := event.CleanText(f.Description)
	venue := src.Resolver().Resolve(event.CleanText(f.LocationText), title, description)

	e := &event.Event{
		ID:          event.ComputeID(venue.Name, title, date.Start),
		Title:       title,
		Description: description,
		StartDate:   date.Start,
		EndDate:     date.End,
		Venue:       venue,
		Categories:  src.Rules().Classify(title, description, src.Categories),
		Price:       price.Extract(event.CleanText(f.PriceText), description),
		ImageURL:    strings.TrimSpace(f.ImageURL),
		SourceURL:   strings.TrimSpace(f.SourceURL),
		SourceID:    src.ID,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
