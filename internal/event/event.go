package event

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Method records which kind of strategy produced an event. It is provenance
// for downstream display and is never altered after creation.
type Method string

const (
	MethodHTML     Method = "html"
	MethodJSONLD   Method = "json-ld"
	MethodAPI      Method = "api"
	MethodAIVision Method = "ai-vision"
)

// Event is a normalized, validated record of a single scheduled occurrence
// at a venue.
type Event struct {
	VenueKey  string `json:"venue_key"`
	VenueName string `json:"venue_name"`
	Title     string `json:"title"`

	// Date is the calendar anchor. It may carry a clock time when the
	// source datetime included one, but filtering only looks at its
	// calendar date.
	Date time.Time `json:"date"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Description      string `json:"description,omitempty"`
	ExtractionMethod Method `json:"extraction_method"`
}

// Valid reports whether the event carries the minimum fields required to
// appear in aggregated output: venue identity, a non-empty title, and a
// date anchor.
func (e *Event) Valid() bool {
	if e.VenueKey == "" || e.VenueName == "" {
		return false
	}
	if strings.TrimSpace(e.Title) == "" {
		return false
	}
	if e.Date.IsZero() {
		return false
	}
	return true
}

// SortKey returns the instant used for chronological ordering: the start
// time when known, otherwise midnight of the event's date.
func (e *Event) SortKey() time.Time {
	if e.StartTime != nil {
		return *e.StartTime
	}
	return time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, e.Date.Location())
}

// String renders a compact one-line form used in logs and text output.
func (e *Event) String() string {
	s := e.Date.Format("2006-01-02")
	if e.StartTime != nil {
		s += " " + e.StartTime.Format("15:04")
		if e.EndTime != nil {
			s += "-" + e.EndTime.Format("15:04")
		}
	}
	return fmt.Sprintf("%s: %s @ %s", s, e.Title, e.VenueName)
}

// Sort orders events ascending by (date, start-time-or-midnight). Ties break
// on venue key then title so output is deterministic across runs.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		ki, kj := events[i].SortKey(), events[j].SortKey()
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		if events[i].VenueKey != events[j].VenueKey {
			return events[i].VenueKey < events[j].VenueKey
		}
		return events[i].Title < events[j].Title
	})
}

// FilterValid drops events failing minimal validation. Strategies call this
// before returning so invalid records never reach the aggregated output.
func FilterValid(events []Event) []Event {
	valid := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Valid() {
			valid = append(valid, e)
		}
	}
	return valid
}
