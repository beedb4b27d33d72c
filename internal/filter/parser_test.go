package filter

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	ref := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{
			name:     "Mar 1-15",
			input:    "Mar 1-15",
			wantFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "March 1 - April 15",
			input:    "March 1 - April 15",
			wantFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 4, 15, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "Cross year range",
			input:    "Dec 28 - Jan 3, 2027",
			wantFrom: time.Date(2026, 12, 28, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2027, 1, 3, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "Single day",
			input:    "July 5",
			wantFrom: time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 7, 5, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "ISO day",
			input:    "2026-03-01",
			wantFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "Whole month",
			input:    "February",
			wantFrom: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "Whole month with year",
			input:    "Feb 2028",
			wantFrom: time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2028, 2, 29, 23, 59, 59, 0, time.UTC),
		},
		{
			name:    "Empty",
			input:   "  ",
			wantErr: true,
		},
		{
			name:    "Nonsense",
			input:   "sometime soon",
			wantErr: true,
		},
		{
			name:    "Backwards",
			input:   "March 15, 2026 - March 1, 2026",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.input, ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateRange(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !from.Equal(tt.wantFrom) {
				t.Errorf("from = %v, want %v", from, tt.wantFrom)
			}
			if !to.Equal(tt.wantTo) {
				t.Errorf("to = %v, want %v", to, tt.wantTo)
			}
		})
	}
}

func TestParseDateRange_Sentinel(t *testing.T) {
	_, _, err := ParseDateRange("whenever", time.Now())
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("error = %v, want ErrInvalidDateRange", err)
	}
}

func TestParseBound(t *testing.T) {
	ref := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	lower, err := ParseBound("March", ref, false)
	if err != nil {
		t.Fatalf("ParseBound() error = %v", err)
	}
	if !lower.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("lower = %v", lower)
	}

	upper, err := ParseBound("March", ref, true)
	if err != nil {
		t.Fatalf("ParseBound() error = %v", err)
	}
	if !upper.Equal(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("upper = %v", upper)
	}
}
