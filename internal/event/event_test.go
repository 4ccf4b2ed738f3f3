package event

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestEventValid(t *testing.T) {
	date := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		evt  Event
		want bool
	}{
		{
			name: "complete event",
			evt:  Event{VenueKey: "k", VenueName: "n", Title: "Show", Date: date},
			want: true,
		},
		{
			name: "missing venue key",
			evt:  Event{VenueName: "n", Title: "Show", Date: date},
			want: false,
		},
		{
			name: "missing venue name",
			evt:  Event{VenueKey: "k", Title: "Show", Date: date},
			want: false,
		},
		{
			name: "whitespace title",
			evt:  Event{VenueKey: "k", VenueName: "n", Title: "   ", Date: date},
			want: false,
		},
		{
			name: "zero date",
			evt:  Event{VenueKey: "k", VenueName: "n", Title: "Show"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.evt.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterValid(t *testing.T) {
	date := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{VenueKey: "k", VenueName: "n", Title: "Keep", Date: date},
		{VenueKey: "k", VenueName: "n", Title: "", Date: date},
		{VenueKey: "", VenueName: "n", Title: "Drop", Date: date},
	}

	valid := FilterValid(events)
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid event, got %d", len(valid))
	}
	if valid[0].Title != "Keep" {
		t.Errorf("wrong event kept: %q", valid[0].Title)
	}
}

func TestSortKeyWithoutStartTime(t *testing.T) {
	// Date carrying a clock but no StartTime sorts at midnight.
	e := Event{Date: time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)}
	key := e.SortKey()
	if key.Hour() != 0 || key.Minute() != 0 {
		t.Errorf("SortKey without StartTime = %v, want midnight", key)
	}
}

func TestSortOrdering(t *testing.T) {
	day1 := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)

	events := []Event{
		{VenueKey: "b", VenueName: "B", Title: "Late", Date: day2},
		{VenueKey: "a", VenueName: "A", Title: "Evening", Date: day1, StartTime: timePtr(day1.Add(19 * time.Hour))},
		{VenueKey: "c", VenueName: "C", Title: "Morning", Date: day1, StartTime: timePtr(day1.Add(9 * time.Hour))},
		{VenueKey: "d", VenueName: "D", Title: "All day", Date: day1},
	}

	Sort(events)

	wantTitles := []string{"All day", "Morning", "Evening", "Late"}
	for i, want := range wantTitles {
		if events[i].Title != want {
			t.Errorf("position %d: got %q, want %q", i, events[i].Title, want)
		}
	}

	// Verify non-decreasing sort keys
	for i := 1; i < len(events); i++ {
		if events[i].SortKey().Before(events[i-1].SortKey()) {
			t.Errorf("events out of order at position %d", i)
		}
	}
}

func TestEventString(t *testing.T) {
	date := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	e := Event{
		VenueKey:  "k",
		VenueName: "The Spot",
		Title:     "Trivia Night",
		Date:      date,
		StartTime: timePtr(date.Add(19 * time.Hour)),
		EndTime:   timePtr(date.Add(22 * time.Hour)),
	}

	want := "2025-07-04 19:00-22:00: Trivia Night @ The Spot"
	if got := e.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
