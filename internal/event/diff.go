package event

import (
	"strings"
	"time"
)

// MaxChangeLog bounds how many changes a snapshot keeps
const MaxChangeLog = 500

// Change types reported by DetectChanges
const (
	ChangeNew        = "new"
	ChangeTitle      = "title"
	ChangeDate       = "date"
	ChangeVenue      = "venue"
	ChangePrice      = "price"
	ChangeCategories = "categories"
)

// Snapshot represents the stored collection of events at a point in time
type Snapshot struct {
	Events     map[string]*Event `json:"events"`      // keyed by Event.ID
	TitleIndex map[string]string `json:"title_index"` // TitleKey → ID mapping
	ChangeLog  []*Change         `json:"change_log"`  // Recent changes
	UpdatedAt  string            `json:"updated_at"`  // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Events:     make(map[string]*Event),
		TitleIndex: make(map[string]string),
		ChangeLog:  make([]*Change, 0),
	}
}

// CreateSnapshot creates a snapshot from a list of events
func CreateSnapshot(events []*Event, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt

	for _, evt := range events {
		snap.Events[evt.ID] = evt
		snap.TitleIndex[TitleKey(evt.Title, evt.StartDate)] = evt.ID
	}

	return snap
}

// RebuildIndex recomputes TitleIndex from Events, used after loading older files
func (s *Snapshot) RebuildIndex() {
	s.TitleIndex = make(map[string]string, len(s.Events))
	for id, evt := range s.Events {
		s.TitleIndex[TitleKey(evt.Title, evt.StartDate)] = id
	}
}

// AppendChanges adds changes to the log, dropping the oldest beyond MaxChangeLog
func (s *Snapshot) AppendChanges(changes []*Change) {
	s.ChangeLog = append(s.ChangeLog, changes...)
	if over := len(s.ChangeLog) - MaxChangeLog; over > 0 {
		s.ChangeLog = append([]*Change(nil), s.ChangeLog[over:]...)
	}
}

// Change represents a change detected in an event between two writes
type Change struct {
	EventID    string    `json:"event_id"`
	ChangeType string    `json:"change_type"` // "new", "title", "date", "venue", "price", "categories"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two versions of an event and returns detected changes
func DetectChanges(previous, current *Event, now time.Time) []*Change {
	if previous == nil {
		return []*Change{
			{
				EventID:    current.ID,
				ChangeType: ChangeNew,
				NewValue:   current.Title,
				DetectedAt: now,
			},
		}
	}

	var changes []*Change
	add := func(kind, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, &Change{
			EventID:    current.ID,
			ChangeType: kind,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: now,
		})
	}

	add(ChangeTitle, previous.Title, current.Title)
	add(ChangeDate, formatRange(previous), formatRange(current))
	add(ChangeVenue, previous.Venue.Name, current.Venue.Name)
	add(ChangePrice, previous.Price, current.Price)
	add(ChangeCategories, strings.Join(previous.Categories, ","), strings.Join(current.Categories, ","))

	return changes
}

func formatRange(e *Event) string {
	return e.StartDate.Format("2006-01-02 15:04") + " - " + e.EndDate.Format("2006-01-02 15:04")
}
