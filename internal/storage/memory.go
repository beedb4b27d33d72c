package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

// MemoryStore keeps events in a snapshot guarded by a mutex. Holding the
// lock across lookup and write makes Upsert atomic.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *event.Snapshot
	opts options

	// persist, when set, is called with the lock held after every mutation.
	// A failing persist rolls the mutation back.
	persist func(*event.Snapshot) error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...Option) *MemoryStore {
	return newMemoryStore(event.NewSnapshot(), opts)
}

func newMemoryStore(snap *event.Snapshot, opts []Option) *MemoryStore {
	if snap.Events == nil {
		snap.Events = make(map[string]*event.Event)
	}
	if snap.TitleIndex == nil || len(snap.TitleIndex) != len(snap.Events) {
		snap.RebuildIndex()
	}
	return &MemoryStore{snap: snap, opts: newOptions(opts)}
}

// undo records what a mutation overwrote so it can be restored
type undo struct {
	events    map[string]*event.Event
	titles    map[string]*string
	changeLog []*event.Change
}

func (m *MemoryStore) newUndo() *undo {
	return &undo{
		events:    make(map[string]*event.Event),
		titles:    make(map[string]*string),
		changeLog: m.snap.ChangeLog,
	}
}

func (u *undo) saveEvent(m *MemoryStore, id string) {
	if _, done := u.events[id]; !done {
		u.events[id] = m.snap.Events[id]
	}
}

func (u *undo) saveTitle(m *MemoryStore, key string) {
	if _, done := u.titles[key]; done {
		return
	}
	if id, ok := m.snap.TitleIndex[key]; ok {
		u.titles[key] = &id
	} else {
		u.titles[key] = nil
	}
}

func (u *undo) restore(m *MemoryStore) {
	for id, e := range u.events {
		if e == nil {
			delete(m.snap.Events, id)
		} else {
			m.snap.Events[id] = e
		}
	}
	for key, id := range u.titles {
		if id == nil {
			delete(m.snap.TitleIndex, key)
		} else {
			m.snap.TitleIndex[key] = *id
		}
	}
	m.snap.ChangeLog = u.changeLog
}

func (m *MemoryStore) commit(u *undo) error {
	if m.persist == nil {
		return nil
	}
	if err := m.persist(m.snap); err != nil {
		u.restore(m)
		return err
	}
	return nil
}

func (m *MemoryStore) removeLocked(u *undo, e *event.Event) {
	u.saveEvent(m, e.ID)
	delete(m.snap.Events, e.ID)

	key := event.TitleKey(e.Title, e.StartDate)
	if m.snap.TitleIndex[key] == e.ID {
		u.saveTitle(m, key)
		delete(m.snap.TitleIndex, key)
	}
}

// Upsert implements Store
func (m *MemoryStore) Upsert(ctx context.Context, e *event.Event) (UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return UpsertResult{}, err
	}
	if err := e.Validate(); err != nil {
		return UpsertResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := event.TitleKey(e.Title, e.StartDate)
	byID := m.snap.Events[e.ID]
	var legacy *event.Event
	if id, ok := m.snap.TitleIndex[key]; ok && id != e.ID {
		legacy = m.snap.Events[id]
	}

	existing := byID
	if existing == nil {
		existing = legacy
	}

	rec, res := reconcile(e, existing, legacy, m.opts.now())

	u := m.newUndo()
	if byID != nil {
		m.removeLocked(u, byID)
	}
	if legacy != nil {
		m.removeLocked(u, legacy)
	}

	u.saveEvent(m, rec.ID)
	u.saveTitle(m, key)
	m.snap.Events[rec.ID] = rec
	m.snap.TitleIndex[key] = rec.ID
	m.snap.AppendChanges(res.Changes)

	if err := m.commit(u); err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

// Get implements Store
func (m *MemoryStore) Get(ctx context.Context, id string) (*event.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.snap.Events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.Clone(), nil
}

// List implements Store
func (m *MemoryStore) List(ctx context.Context) ([]*event.Event, error) {
	m.mu.RLock()
	events := make([]*event.Event, 0, len(m.snap.Events))
	for _, e := range m.snap.Events {
		events = append(events, e.Clone())
	}
	m.mu.RUnlock()

	sortByStart(events)
	return events, nil
}

// Delete implements Store
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.snap.Events[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	u := m.newUndo()
	m.removeLocked(u, e)
	return m.commit(u)
}

// Changes returns up to limit of the most recent changes, oldest first.
// A limit of zero or less returns the whole log.
func (m *MemoryStore) Changes(limit int) []*event.Change {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := m.snap.ChangeLog
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]*event.Change, len(log))
	copy(out, log)
	return out
}

// Len returns the number of stored events
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snap.Events)
}

// Close implements Store
func (m *MemoryStore) Close() error {
	return nil
}

func sortByStart(events []*event.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})
}
