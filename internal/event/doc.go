// Package event provides the canonical event model shared by every collector.
//
// The event package holds the raw fragment a collector hands over, the venue
// reference record, the canonical event that gets stored, and the identity
// scheme. Each event is assigned a deterministic SHA1-based ID generated from
// its venue name, title and start day, so the same event discovered by two
// collectors converges to one stored record.
package event
