package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Fragment outcomes
const (
	OutcomeInserted             = "inserted"
	OutcomeUpdated              = "updated"
	OutcomeSkippedUnparseable   = "skipped_unparseable"
	OutcomeSkippedMissingTitle  = "skipped_missing_title"
	OutcomeSkippedUnknownSource = "skipped_unknown_source"
	OutcomeSkippedInvalid       = "skipped_invalid"
	OutcomeFailed               = "failed"
)

// ReviewFlag records a fragment that needs a human look
type ReviewFlag struct {
	Index    int    `json:"index"`
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	DateText string `json:"date_text,omitempty"`
	TimeText string `json:"time_text,omitempty"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason"`
}

// Report summarizes a batch. Every fragment is counted exactly once.
type Report struct {
	Total                int          `json:"total"`
	Inserted             int          `json:"inserted"`
	Updated              int          `json:"updated"`
	SkippedUnparseable   int          `json:"skipped_unparseable"`
	SkippedMissingTitle  int          `json:"skipped_missing_title"`
	SkippedUnknownSource int          `json:"skipped_unknown_source"`
	SkippedInvalid       int          `json:"skipped_invalid"`
	Failed               int          `json:"failed"`
	Flags                []ReviewFlag `json:"flags,omitempty"`
	StartedAt            time.Time    `json:"started_at"`
	FinishedAt           time.Time    `json:"finished_at"`
}

func (r *Report) count(outcome string) {
	switch outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkippedUnparseable:
		r.SkippedUnparseable++
	case OutcomeSkippedMissingTitle:
		r.SkippedMissingTitle++
	case OutcomeSkippedUnknownSource:
		r.SkippedUnknownSource++
	case OutcomeSkippedInvalid:
		r.SkippedInvalid++
	case OutcomeFailed:
		r.Failed++
	}
}

// Skipped returns the number of fragments that never reached the store
func (r *Report) Skipped() int {
	return r.SkippedUnparseable + r.SkippedMissingTitle + r.SkippedUnknownSource + r.SkippedInvalid
}

// Processed returns the number of fragments with a recorded outcome
func (r *Report) Processed() int {
	return r.Inserted + r.Updated + r.Skipped() + r.Failed
}

// HasFailures reports whether any store write failed
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

// Duration returns how long the batch took
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// String returns a one-line summary
func (r *Report) String() string {
	return fmt.Sprintf("%d fragments: %d inserted, %d updated, %d skipped (%d unparseable, %d missing title, %d unknown source, %d invalid), %d failed",
		r.Total, r.Inserted, r.Updated, r.Skipped(),
		r.SkippedUnparseable, r.SkippedMissingTitle, r.SkippedUnknownSource, r.SkippedInvalid, r.Failed)
}

// WriteFlags writes the review flags as JSON Lines
func (r *Report) WriteFlags(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, f := range r.Flags {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("writing review flag: %w", err)
		}
	}
	return nil
}
