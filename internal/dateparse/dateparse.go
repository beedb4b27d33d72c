package dateparse

import (
	"strings"
	"time"
)

// Confidence is the qualitative outcome of parsing
type Confidence string

const (
	Matched     Confidence = "matched"
	Unparseable Confidence = "unparseable"
)

// Result is the outcome of Parse. Start and End are only meaningful when
// Confidence is Matched, in which case Start <= End always holds.
type Result struct {
	Start      time.Time  `json:"start_date,omitempty"`
	End        time.Time  `json:"end_date,omitempty"`
	Confidence Confidence `json:"confidence"`
	Matcher    string     `json:"matcher,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// OK reports whether the result carries usable dates
func (r Result) OK() bool {
	return r.Confidence == Matched
}

func unparseable(reason string) Result {
	return Result{Confidence: Unparseable, Reason: reason}
}

// Input is the pre-processed text handed to every matcher
type Input struct {
	// Raw is the whitespace-collapsed date text
	Raw string
	// Date is Raw with clock readings blanked out
	Date string
	// Clocks holds the clock readings in order of appearance, taken from
	// the time text when it has any and from the date text otherwise
	Clocks []Clock
}

// NewInput prepares the date and time phrases for matching
func NewInput(dateText, timeText string) *Input {
	raw := collapse(dateText)
	dateClocks, stripped := extractClocks(raw)

	clocks := dateClocks
	if t := collapse(timeText); t != "" {
		if timeClocks, _ := extractClocks(t); len(timeClocks) > 0 {
			clocks = timeClocks
		}
	}

	return &Input{
		Raw:    raw,
		Date:   collapse(stripped),
		Clocks: clocks,
	}
}

// HasClock reports whether any clock reading was found
func (in *Input) HasClock() bool {
	return len(in.Clocks) > 0
}

func (in *Input) startClock() (Clock, bool) {
	if len(in.Clocks) == 0 {
		return Clock{}, false
	}
	return in.Clocks[0], true
}

func (in *Input) endClock() (Clock, bool) {
	if len(in.Clocks) < 2 {
		return Clock{}, false
	}
	return in.Clocks[1], true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Matcher recognizes one shape of date phrase. Match returns false when the
// shape is absent so the cascade moves on. A matcher that recognizes its
// shape but finds it inconsistent returns true with an Unparseable result,
// which stops the cascade.
type Matcher interface {
	Name() string
	Match(in *Input, d Defaults) (Result, bool)
}

// Parser evaluates its matchers in order; the first one that accepts wins
type Parser struct {
	matchers []Matcher
}

// NewParser creates a parser over the given matchers, or the default
// cascade when none are given
func NewParser(matchers ...Matcher) *Parser {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Parser{matchers: matchers}
}

// Matchers returns the names of the matchers in evaluation order
func (p *Parser) Matchers() []string {
	names := make([]string, len(p.matchers))
	for i, m := range p.matchers {
		names[i] = m.Name()
	}
	return names
}

// Parse turns a date phrase and an optional time phrase into a Result
func (p *Parser) Parse(dateText, timeText string, d Defaults) Result {
	in := NewInput(dateText, timeText)
	if in.Raw == "" && !in.HasClock() {
		return unparseable("empty date text")
	}
	d.Reference = d.reference()

	for _, m := range p.matchers {
		res, ok := m.Match(in, d)
		if !ok {
			continue
		}
		res.Matcher = m.Name()
		if res.OK() && res.End.Before(res.Start) {
			return Result{Confidence: Unparseable, Matcher: m.Name(), Reason: "end before start"}
		}
		return res
	}

	return unparseable("no pattern matched")
}

var defaultParser = NewParser()

// Parse runs the default cascade
func Parse(dateText, timeText string, d Defaults) Result {
	return defaultParser.Parse(dateText, timeText, d)
}
