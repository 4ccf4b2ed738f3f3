package scraper

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pfrederiksen/venue-events/internal/event"
)

// Metrics instruments a scrape run on a private registry. All record
// methods are nil-safe so the coordinator works without instrumentation
// wired in.
type Metrics struct {
	registry *prometheus.Registry

	venuesScraped   *prometheus.CounterVec
	eventsExtracted *prometheus.CounterVec
	errorsByType    *prometheus.CounterVec
	retries         prometheus.Counter
	venueDuration   prometheus.Histogram
}

// NewMetrics creates the scraper's collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		venuesScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venue_events",
			Subsystem: "scraper",
			Name:      "venues_total",
			Help:      "Venues scraped, by outcome.",
		}, []string{"outcome"}),
		eventsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venue_events",
			Subsystem: "scraper",
			Name:      "events_extracted_total",
			Help:      "Valid events extracted, by extraction method.",
		}, []string{"method"}),
		errorsByType: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venue_events",
			Subsystem: "scraper",
			Name:      "errors_total",
			Help:      "Venue failures, by error type.",
		}, []string{"type"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "venue_events",
			Subsystem: "scraper",
			Name:      "retries_total",
			Help:      "Retry attempts across all venues.",
		}),
		venueDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "venue_events",
			Subsystem: "scraper",
			Name:      "venue_duration_seconds",
			Help:      "Wall time spent scraping one venue, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

func (m *Metrics) observeVenue(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.venuesScraped.WithLabelValues(outcome).Inc()
	m.venueDuration.Observe(d.Seconds())
}

func (m *Metrics) addEvents(events []event.Event) {
	if m == nil {
		return
	}
	for _, e := range events {
		m.eventsExtracted.WithLabelValues(string(e.ExtractionMethod)).Inc()
	}
}

func (m *Metrics) recordError(t ErrorType) {
	if m == nil {
		return
	}
	m.errorsByType.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) recordRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// WriteSummary renders the gathered counters as readable lines, one per
// labeled series. Histograms report their sample count and sum.
func (m *Metrics) WriteSummary(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := ""
			for _, lp := range metric.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += lp.GetName() + "=" + lp.GetValue()
			}
			name := mf.GetName()
			if labels != "" {
				name += "{" + labels + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%.3f\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
