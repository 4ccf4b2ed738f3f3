package scraper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/parser"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.observeVenue("success", time.Second)
	m.addEvents([]event.Event{{ExtractionMethod: event.MethodHTML}})
	m.recordError(TypeNetwork)
	m.recordRetry()
	require.NoError(t, m.WriteSummary(&strings.Builder{}))
}

func TestMetricsSummaryAfterRun(t *testing.T) {
	registry := parser.NewRegistry()
	registry.RegisterSpecific("ok", &fakeStrategy{name: "ok", fn: func(v *venue.Venue) ([]event.Event, error) {
		return []event.Event{makeEvent(v.Key, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC))}, nil
	}})

	m := NewMetrics()
	c := New(fetch.New(time.Second), registry, Options{
		BackoffBase: time.Millisecond,
		Now:         func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) },
		Metrics:     m,
	})

	c.ScrapeAll(context.Background(), []venue.Venue{makeVenue("ok"), makeVenue("unresolvable")})

	var out strings.Builder
	require.NoError(t, m.WriteSummary(&out))
	summary := out.String()

	require.Contains(t, summary, "venue_events_scraper_venues_total{outcome=success} 1")
	require.Contains(t, summary, "venue_events_scraper_venues_total{outcome=failed} 1")
	require.Contains(t, summary, "venue_events_scraper_events_extracted_total{method=html} 1")
	require.Contains(t, summary, "venue_events_scraper_errors_total{type=configuration_error} 1")
}
