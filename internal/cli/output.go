package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/timezone"
)

// OutputFormat specifies the output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Result contains the rendered outcome of one run.
type Result struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Timezone    string        `json:"timezone"`
	Events      []event.Event `json:"events"`
	Errors      []string      `json:"errors,omitempty"`
}

// WriteOutput writes the result in the specified format.
func WriteOutput(w io.Writer, result *Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, result *Result) error {
	if result.Events == nil {
		result.Events = []event.Event{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText renders events grouped by day, with venue-local clock times.
func writeText(w io.Writer, result *Result) error {
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "No upcoming events found.")
	}

	venues := make(map[string]bool)
	lastDay := ""
	for i := range result.Events {
		e := &result.Events[i]
		venues[e.VenueKey] = true

		day := e.Date.Format("Monday, January 2")
		if day != lastDay {
			if lastDay != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s\n", day)
			lastDay = day
		}

		when := "All day"
		if e.StartTime != nil {
			when = timezone.FormatTime(*e.StartTime, result.Timezone)
			if e.EndTime != nil {
				when += " to " + timezone.FormatTime(*e.EndTime, result.Timezone)
			}
		}
		fmt.Fprintf(w, "  %s - %s @ %s\n", when, e.Title, e.VenueName)
	}

	if len(result.Events) > 0 {
		fmt.Fprintf(w, "\nTotal: %d events across %d venues\n", len(result.Events), len(venues))
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		for _, msg := range result.Errors {
			fmt.Fprintln(w, msg)
		}
	}

	return nil
}
