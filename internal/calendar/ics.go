// Package calendar renders an aggregated event feed as an iCalendar
// document per RFC 5545.
package calendar

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/pfrederiksen/venue-events/internal/event"
)

// defaultDuration is assumed for events that have a start time but no end.
const defaultDuration = 2 * time.Hour

// GenerateICS renders one VCALENDAR containing a VEVENT per event. Events
// with a start time become timed entries; date-only events become all-day
// entries.
func GenerateICS(events []event.Event) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//venue-events//venue-events//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	stamp := formatICSTime(time.Now().UTC())
	for i := range events {
		writeEvent(&ics, &events[i], stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	fmt.Fprintf(ics, "UID:%s@venue-events\r\n", eventUID(evt))
	fmt.Fprintf(ics, "DTSTAMP:%s\r\n", stamp)

	if evt.StartTime != nil {
		start := *evt.StartTime
		end := start.Add(defaultDuration)
		if evt.EndTime != nil {
			end = *evt.EndTime
		}
		fmt.Fprintf(ics, "DTSTART:%s\r\n", formatICSTime(start))
		fmt.Fprintf(ics, "DTEND:%s\r\n", formatICSTime(end))
	} else {
		// All-day entry: DTEND is the exclusive next day.
		day := evt.Date
		fmt.Fprintf(ics, "DTSTART;VALUE=DATE:%s\r\n", day.Format("20060102"))
		fmt.Fprintf(ics, "DTEND;VALUE=DATE:%s\r\n", day.AddDate(0, 0, 1).Format("20060102"))
	}

	fmt.Fprintf(ics, "SUMMARY:%s\r\n", escapeICS(evt.Title))
	if evt.Description != "" {
		fmt.Fprintf(ics, "DESCRIPTION:%s\r\n", escapeICS(evt.Description))
	}
	fmt.Fprintf(ics, "LOCATION:%s\r\n", escapeICS(evt.VenueName))

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// eventUID derives a stable identifier from the event's identity fields, so
// re-importing a regenerated calendar updates rather than duplicates.
func eventUID(evt *event.Event) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", evt.VenueKey, evt.Date.Format("2006-01-02"), evt.Title)
	return fmt.Sprintf("%s-%x", evt.VenueKey, h.Sum64())
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string.
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters according to RFC 5545.
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
