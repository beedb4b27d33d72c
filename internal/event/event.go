package event

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"strings"
	"time"
)

// IDVersion is mixed into every identity digest. Bump it only together with
// a migration of stored records.
const IDVersion = "v1"

// ErrInvalidEvent is returned when an event breaks one of the model invariants.
var ErrInvalidEvent = errors.New("invalid event")

// Fragment is the unvalidated text bundle a collector produces for one candidate event
type Fragment struct {
	Title        string `json:"title"`
	DateText     string `json:"date_text"`
	TimeText     string `json:"time_text,omitempty"`
	LocationText string `json:"location_text,omitempty"`
	Description  string `json:"description,omitempty"`
	PriceText    string `json:"price_text,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	SourceURL    string `json:"source_url"`
	SourceID     string `json:"source_id"`
}

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Venue is immutable reference data describing where an event happens
type Venue struct {
	Name        string      `json:"name" yaml:"name"`
	Address     string      `json:"address,omitempty" yaml:"address"`
	City        string      `json:"city,omitempty" yaml:"city"`
	Region      string      `json:"region,omitempty" yaml:"region"`
	Country     string      `json:"country,omitempty" yaml:"country"`
	PostalCode  string      `json:"postal_code,omitempty" yaml:"postal_code"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Website     string      `json:"website,omitempty" yaml:"website"`
}

// IsZero reports whether the venue carries no name
func (v Venue) IsZero() bool {
	return strings.TrimSpace(v.Name) == ""
}

// Event is the validated, identity-bearing record the store persists
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Venue       Venue     `json:"venue"`
	Categories  []string  `json:"categories"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	SourceURL   string    `json:"source_url"`
	SourceID    string    `json:"source_id"`
	FirstSeen   time.Time `json:"first_seen"`
	LastUpdated time.Time `json:"last_updated"`
}

// ComputeID creates a deterministic ID for an event from its venue name, title
// and the calendar day of its start. The time of day is ignored so two runs
// that parse slightly different times for the same day collide.
func ComputeID(venueName, title string, start time.Time) string {
	h := sha1.New()
	h.Write([]byte(IDVersion + "|" + identityKey(venueName) + "|" + identityKey(title) + "|" + start.Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// identityKey lowercases and collapses whitespace so cosmetic differences
// between collectors do not split identities
func identityKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// TitleKey is the secondary uniqueness key: exact title plus exact start instant
func TitleKey(title string, start time.Time) string {
	return title + "|" + start.Format(time.RFC3339Nano)
}

// Validate checks the invariants every stored event must hold
func (e *Event) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidEvent)
	}
	if e.Venue.IsZero() {
		return fmt.Errorf("%w: missing venue", ErrInvalidEvent)
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return fmt.Errorf("%w: missing dates", ErrInvalidEvent)
	}
	if e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidEvent,
			e.EndDate.Format(time.RFC3339), e.StartDate.Format(time.RFC3339))
	}
	return nil
}

// Clone returns a deep copy so stores never share slices with callers
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Categories != nil {
		c.Categories = make([]string, len(e.Categories))
		copy(c.Categories, e.Categories)
	}
	return &c
}

// IsFree reports whether the event price is the normalized free label
func (e *Event) IsFree() bool {
	return strings.EqualFold(e.Price, "Free")
}

// IsUpcoming checks if an event has not ended yet relative to now
func (e *Event) IsUpcoming(now time.Time) bool {
	return !e.EndDate.Before(now)
}
