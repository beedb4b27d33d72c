package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

var (
	// ErrNotFound is returned when no event has the requested id
	ErrNotFound = errors.New("event not found")
	// ErrConflict is returned when concurrent writers kept winning the race
	// for the same identity
	ErrConflict = errors.New("upsert conflict")
)

// Outcome tells whether an upsert created or replaced a record
type Outcome string

const (
	Inserted Outcome = "inserted"
	Updated  Outcome = "updated"
)

// UpsertResult describes a completed write
type UpsertResult struct {
	Outcome Outcome
	// ID is the canonical id the record is stored under
	ID string
	// Replaced lists ids of records folded into ID, such as a record
	// stored under an older identity scheme
	Replaced []string
	Changes  []*event.Change
}

// Store is the shared event collection
type Store interface {
	// Upsert inserts e, or replaces the record with the same id or the same
	// (title, start) pair. It is atomic per identity.
	Upsert(ctx context.Context, e *event.Event) (UpsertResult, error)
	Get(ctx context.Context, id string) (*event.Event, error)
	// List returns every event ordered by start date, then id
	List(ctx context.Context) ([]*event.Event, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// ChangeLog is implemented by stores that keep recent changes
type ChangeLog interface {
	Changes(limit int) []*event.Change
}

// Option configures a store
type Option func(*options)

type options struct {
	now         func() time.Time
	maxAttempts int
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, maxAttempts: 5}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock used for FirstSeen and LastUpdated
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMaxAttempts bounds the compare-and-swap loop of PostgresStore
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// advance returns a LastUpdated value strictly after prev
func advance(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

// reconcile builds the record to write for candidate given the record it
// replaces, or nil for an insert, and the optional legacy record folded into it
func reconcile(candidate, existing, legacy *event.Event, now time.Time) (*event.Event, UpsertResult) {
	rec := candidate.Clone()
	now = now.UTC().Truncate(time.Microsecond)

	if existing == nil {
		if rec.FirstSeen.IsZero() {
			rec.FirstSeen = now
		}
		rec.LastUpdated = now
		return rec, UpsertResult{
			Outcome: Inserted,
			ID:      rec.ID,
			Changes: event.DetectChanges(nil, rec, now),
		}
	}

	rec.FirstSeen = existing.FirstSeen
	rec.LastUpdated = advance(existing.LastUpdated, now)

	res := UpsertResult{
		Outcome: Updated,
		ID:      rec.ID,
		Changes: event.DetectChanges(existing, rec, now),
	}
	if existing.ID != rec.ID {
		res.Replaced = append(res.Replaced, existing.ID)
	}
	if legacy != nil && legacy != existing {
		res.Replaced = append(res.Replaced, legacy.ID)
		if legacy.FirstSeen.Before(rec.FirstSeen) {
			rec.FirstSeen = legacy.FirstSeen
		}
		if legacy.LastUpdated.After(existing.LastUpdated) {
			rec.LastUpdated = advance(legacy.LastUpdated, rec.LastUpdated)
		}
	}
	if rec.FirstSeen.IsZero() {
		rec.FirstSeen = now
	}
	return rec, res
}
