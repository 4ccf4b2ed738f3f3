// Package filter narrows an aggregated event list for display.
//
// Criteria:
//   - Date ranges (from/to, inclusive)
//   - Venue keys (exact, case-insensitive)
//   - Title terms (substring matching, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//
// An empty filter matches everything, so callers can apply one
// unconditionally.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/venue-events/internal/event"
)

// Filter represents display filtering criteria.
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Venue keys, matched exactly (case-insensitive)
	Venues []string `json:"venues,omitempty"`

	// Title terms (case-insensitive substring match)
	Titles []string `json:"titles,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// New creates an empty filter with no active criteria.
func New() *Filter {
	return &Filter{
		Venues: []string{},
		Titles: []string{},
	}
}

// IsEmpty reports whether the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Venues) == 0 &&
		len(f.Titles) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if an event passes all active criteria. An empty filter
// matches all events. Date comparisons look only at the calendar day.
func (f *Filter) Matches(e *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	day := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)

	if f.DateFrom != nil {
		from := time.Date(f.DateFrom.Year(), f.DateFrom.Month(), f.DateFrom.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(from) {
			return false
		}
	}
	if f.DateTo != nil {
		to := time.Date(f.DateTo.Year(), f.DateTo.Month(), f.DateTo.Day(), 0, 0, 0, 0, time.UTC)
		if day.After(to) {
			return false
		}
	}

	if f.WeekendsOnly {
		weekday := e.Date.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if len(f.Venues) > 0 {
		matched := false
		for _, key := range f.Venues {
			if strings.EqualFold(e.VenueKey, key) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Titles) > 0 {
		matched := false
		titleLower := strings.ToLower(e.Title)
		for _, term := range f.Titles {
			if strings.Contains(titleLower, strings.ToLower(term)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns only the events matching all criteria. An empty filter
// returns the input unchanged.
func (f *Filter) Apply(events []event.Event) []event.Event {
	if f.IsEmpty() {
		return events
	}

	var filtered []event.Event
	for _, e := range events {
		if f.Matches(&e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("Titles: %s", strings.Join(f.Titles, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	return strings.Join(parts, " | ")
}
