// Package scraper coordinates a scrape run: it fans a venue list out into
// bounded-concurrency tasks, applies per-venue retry with exponential
// backoff, classifies failures into a closed error taxonomy, and merges the
// surviving events into a window-filtered, deterministically sorted list.
// One failing venue never blocks or cancels the others.
package scraper
