// Package dateparse turns free-text date and time phrases into a start/end
// pair of naive local times.
//
// Parsing is an ordered cascade of Matcher values, most specific first; the
// first matcher that accepts the text decides the outcome. Malformed input is
// an expected outcome reported as Unparseable, never an error, and the parser
// never invents a date to force success.
//
// When a phrase carries no time of day or no end, the caller-supplied
// Defaults decide: StartTime for the missing clock and a DurationPolicy for
// the missing end.
package dateparse
