// Package cli implements the venue-events command: load a venues file,
// run the scrape pipeline, and render the aggregated feed as text or JSON,
// optionally snapshotting it to disk and exporting an iCalendar file.
package cli
