package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	start_date   TIMESTAMP NOT NULL,
	end_date     TIMESTAMP NOT NULL,
	venue        JSONB NOT NULL,
	categories   TEXT[] NOT NULL DEFAULT '{}',
	price        TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	source_id    TEXT NOT NULL DEFAULT '',
	first_seen   TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	CONSTRAINT events_dates_ordered CHECK (start_date <= end_date)
);
CREATE UNIQUE INDEX IF NOT EXISTS events_title_start_idx ON events (title, start_date);
`

const selectColumns = `id, title, description, start_date, end_date, venue, categories,
	price, image_url, source_url, source_id, first_seen, last_updated`

// PostgresStore keeps events in a PostgreSQL table. The primary key is the
// canonical id and a unique index covers (title, start_date), so the
// database itself refuses duplicates.
type PostgresStore struct {
	db   *sql.DB
	opts options
}

// OpenPostgres connects to dsn and creates the schema when missing
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := NewPostgresStore(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		db.Close() // nolint:errcheck
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open database handle
func NewPostgresStore(db *sql.DB, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, opts: newOptions(opts)}
}

// Migrate creates the events table and its indexes
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*event.Event, error) {
	var (
		e     event.Event
		venue []byte
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &venue,
		pq.Array(&e.Categories), &e.Price, &e.ImageURL, &e.SourceURL, &e.SourceID,
		&e.FirstSeen, &e.LastUpdated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(venue, &e.Venue); err != nil {
		return nil, fmt.Errorf("decoding venue of %s: %w", e.ID, err)
	}

	// TIMESTAMP columns carry a wall clock only
	e.StartDate = wallClock(e.StartDate)
	e.EndDate = wallClock(e.EndDate)
	e.FirstSeen = e.FirstSeen.UTC()
	e.LastUpdated = e.LastUpdated.UTC()
	return &e, nil
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// args returns the column values of rec in selectColumns order
func args(rec *event.Event) ([]interface{}, error) {
	venue, err := json.Marshal(rec.Venue)
	if err != nil {
		return nil, fmt.Errorf("encoding venue: %w", err)
	}
	categories := rec.Categories
	if categories == nil {
		categories = []string{}
	}
	return []interface{}{
		rec.ID, rec.Title, rec.Description, rec.StartDate, rec.EndDate, venue,
		pq.Array(categories), rec.Price, rec.ImageURL, rec.SourceURL, rec.SourceID,
		rec.FirstSeen, rec.LastUpdated,
	}, nil
}

// Upsert implements Store with a compare-and-swap loop. Matching rows are
// locked with SELECT ... FOR UPDATE; an insert that loses a race to a
// concurrent writer affects no rows and the loop starts over, now finding
// the winner's row to update.
func (s *PostgresStore) Upsert(ctx context.Context, e *event.Event) (UpsertResult, error) {
	if err := e.Validate(); err != nil {
		return UpsertResult{}, err
	}

	for attempt := 0; attempt < s.opts.maxAttempts; attempt++ {
		res, done, err := s.tryUpsert(ctx, e)
		if err != nil {
			return UpsertResult{}, err
		}
		if done {
			return res, nil
		}
	}
	return UpsertResult{}, fmt.Errorf("%w: %s", ErrConflict, e.ID)
}

func (s *PostgresStore) tryUpsert(ctx context.Context, e *event.Event) (UpsertResult, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UpsertResult{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	rows, err := tx.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM events
		 WHERE id = $1 OR (title = $2 AND start_date = $3)
		 FOR UPDATE`,
		e.ID, e.Title, e.StartDate)
	if err != nil {
		return UpsertResult{}, false, fmt.Errorf("locking events: %w", err)
	}

	var byID, legacy *event.Event
	for rows.Next() {
		found, err := scanEvent(rows)
		if err != nil {
			rows.Close() // nolint:errcheck
			return UpsertResult{}, false, fmt.Errorf("reading event: %w", err)
		}
		if found.ID == e.ID {
			byID = found
		} else {
			legacy = found
		}
	}
	if err := rows.Err(); err != nil {
		return UpsertResult{}, false, fmt.Errorf("reading events: %w", err)
	}
	rows.Close() // nolint:errcheck

	existing := byID
	if existing == nil {
		existing = legacy
	}
	rec, res := reconcile(e, existing, legacy, s.opts.now())

	values, err := args(rec)
	if err != nil {
		return UpsertResult{}, false, err
	}

	var result sql.Result
	switch {
	case existing == nil:
		result, err = tx.ExecContext(ctx,
			`INSERT INTO events (`+selectColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT DO NOTHING`, values...)
	default:
		if byID != nil && legacy != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, legacy.ID); err != nil {
				return UpsertResult{}, false, fmt.Errorf("folding legacy event: %w", err)
			}
		}
		// $14 is the id the row is stored under now; it differs from $1 when
		// a legacy row is re-keyed
		result, err = tx.ExecContext(ctx,
			`UPDATE events SET id = $1, title = $2, description = $3, start_date = $4,
			   end_date = $5, venue = $6, categories = $7, price = $8, image_url = $9,
			   source_url = $10, source_id = $11, first_seen = $12, last_updated = $13
			 WHERE id = $14`, append(values, existing.ID)...)
	}
	if err != nil {
		return UpsertResult{}, false, fmt.Errorf("writing event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return UpsertResult{}, false, fmt.Errorf("writing event: %w", err)
	}
	if n == 0 {
		// A concurrent writer got there first
		return UpsertResult{}, false, nil
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, false, fmt.Errorf("committing event: %w", err)
	}
	return res, true, nil
}

// Get implements Store
func (s *PostgresStore) Get(ctx context.Context, id string) (*event.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading event: %w", err)
	}
	return e, nil
}

// List implements Store
func (s *PostgresStore) List(ctx context.Context) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM events ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	var events []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("reading event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Delete implements Store
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close implements Store
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
