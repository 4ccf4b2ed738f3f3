package scraper

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/parser"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

// fakeStrategy lets tests script per-venue outcomes without any network.
type fakeStrategy struct {
	name string
	fn   func(v *venue.Venue) ([]event.Event, error)
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Extract(_ context.Context, _ *fetch.Client, v *venue.Venue) ([]event.Event, error) {
	return s.fn(v)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func testCoordinator(registry *parser.Registry) *Coordinator {
	return New(fetch.New(time.Second), registry, Options{
		BackoffBase: time.Millisecond,
		Now:         func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func makeVenue(key string) venue.Venue {
	return venue.Venue{
		Key:        key,
		Name:       "Venue " + key,
		URL:        "https://" + key + ".test",
		SourceType: venue.SourceCustom,
		Timezone:   "UTC",
	}
}

func makeEvent(key string, date time.Time) event.Event {
	return event.Event{
		VenueKey:         key,
		VenueName:        "Venue " + key,
		Title:            "Show at " + key,
		Date:             date,
		ExtractionMethod: event.MethodHTML,
	}
}

func TestUnresolvableVenueIsConfigurationError(t *testing.T) {
	registry := parser.NewRegistry()
	registry.RegisterSpecific("good", &fakeStrategy{name: "good", fn: func(v *venue.Venue) ([]event.Event, error) {
		return []event.Event{makeEvent(v.Key, time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC))}, nil
	}})
	c := testCoordinator(registry)

	events := c.ScrapeAll(context.Background(), []venue.Venue{
		makeVenue("good"),
		makeVenue("unresolvable"),
	})

	require.Len(t, events, 1)
	require.Equal(t, "good", events[0].VenueKey)

	errs := c.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, "unresolvable", errs[0].VenueKey)
	require.Equal(t, TypeConfiguration, errs[0].Type)
}

func TestRetryableFailureExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	registry := parser.NewRegistry()
	registry.RegisterSpecific("flaky", &fakeStrategy{name: "flaky", fn: func(v *venue.Venue) ([]event.Event, error) {
		calls.Add(1)
		return nil, timeoutErr{}
	}})
	c := testCoordinator(registry)

	events, scrapeErr := c.ScrapeOne(context.Background(), &venue.Venue{
		Key: "flaky", Name: "Flaky", URL: "https://flaky.test", SourceType: venue.SourceCustom,
	})

	require.Empty(t, events)
	require.NotNil(t, scrapeErr)
	require.Equal(t, TypeNetworkTimeout, scrapeErr.Type)
	require.Equal(t, int32(DefaultMaxRetries), calls.Load())
}

func TestParserErrorNeverRetries(t *testing.T) {
	var calls atomic.Int32
	registry := parser.NewRegistry()
	registry.RegisterSpecific("broken", &fakeStrategy{name: "broken", fn: func(v *venue.Venue) ([]event.Event, error) {
		calls.Add(1)
		return nil, &parser.ParseError{VenueKey: v.Key, Message: "bad shape"}
	}})
	c := testCoordinator(registry)

	_, scrapeErr := c.ScrapeOne(context.Background(), &venue.Venue{
		Key: "broken", Name: "Broken", URL: "https://broken.test", SourceType: venue.SourceCustom,
	})

	require.NotNil(t, scrapeErr)
	require.Equal(t, TypeParser, scrapeErr.Type)
	require.Equal(t, int32(1), calls.Load())
}

func TestBackoffScheduleIsExponential(t *testing.T) {
	var calls atomic.Int32
	registry := parser.NewRegistry()
	registry.RegisterSpecific("slow", &fakeStrategy{name: "slow", fn: func(v *venue.Venue) ([]event.Event, error) {
		calls.Add(1)
		return nil, timeoutErr{}
	}})

	base := 50 * time.Millisecond
	c := New(fetch.New(time.Second), registry, Options{BackoffBase: base})

	startedAt := time.Now()
	_, scrapeErr := c.ScrapeOne(context.Background(), &venue.Venue{
		Key: "slow", Name: "Slow", URL: "https://slow.test", SourceType: venue.SourceCustom,
	})
	elapsed := time.Since(startedAt)

	require.NotNil(t, scrapeErr)
	require.Equal(t, int32(DefaultMaxRetries), calls.Load())

	// Two sleeps separate three attempts: base before the second attempt,
	// doubled before the third.
	require.GreaterOrEqual(t, elapsed, 3*base)
	require.Less(t, elapsed, 8*base)
}

func TestScrapeOneAppliesRunSemantics(t *testing.T) {
	registry := parser.NewRegistry()
	registry.RegisterSpecific("solo", &fakeStrategy{name: "solo", fn: func(v *venue.Venue) ([]event.Event, error) {
		late := makeEvent(v.Key, time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC))
		start := time.Date(2025, 7, 3, 21, 0, 0, 0, time.UTC)
		late.StartTime = &start

		early := makeEvent(v.Key, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC))
		stale := makeEvent(v.Key, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
		return []event.Event{late, early, stale}, nil
	}})
	c := testCoordinator(registry)

	events, scrapeErr := c.ScrapeOne(context.Background(), &venue.Venue{
		Key: "solo", Name: "Solo", URL: "https://solo.test", SourceType: venue.SourceCustom,
	})

	require.Nil(t, scrapeErr)
	// Out-of-window events are dropped and the rest come back sorted.
	require.Len(t, events, 2)
	require.Equal(t, 2, events[0].Date.Day())
	require.Equal(t, 3, events[1].Date.Day())
	require.Empty(t, c.Errors())
}

func TestScrapeOneRecordsError(t *testing.T) {
	registry := parser.NewRegistry()
	registry.RegisterSpecific("broken", &fakeStrategy{name: "broken", fn: func(v *venue.Venue) ([]event.Event, error) {
		return nil, &parser.ParseError{VenueKey: v.Key, Message: "unusable"}
	}})
	c := testCoordinator(registry)

	// A leftover failure from a previous run is discarded.
	c.ScrapeAll(context.Background(), []venue.Venue{makeVenue("unresolvable")})
	require.Len(t, c.Errors(), 1)

	_, scrapeErr := c.ScrapeOne(context.Background(), &venue.Venue{
		Key: "broken", Name: "Broken Bar", URL: "https://broken.test", SourceType: venue.SourceCustom,
	})

	require.NotNil(t, scrapeErr)
	errs := c.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, "broken", errs[0].VenueKey)
	require.Equal(t, []string{"Failed to fetch information for: Broken Bar"}, c.UserMessages())
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	registry := parser.NewRegistry()
	registry.RegisterSpecific("recovers", &fakeStrategy{name: "recovers", fn: func(v *venue.Venue) ([]event.Event, error) {
		if calls.Add(1) < 3 {
			return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		return []event.Event{makeEvent(v.Key, time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC))}, nil
	}})
	c := testCoordinator(registry)

	events, scrapeErr := c.ScrapeOne(context.Background(), &venue.Venue{
		Key: "recovers", Name: "Recovers", URL: "https://recovers.test", SourceType: venue.SourceCustom,
	})

	require.Nil(t, scrapeErr)
	require.Len(t, events, 1)
	require.Equal(t, int32(3), calls.Load())
}

func TestFailureIsolation(t *testing.T) {
	registry := parser.NewRegistry()
	for _, key := range []string{"a", "b", "c"} {
		key := key
		registry.RegisterSpecific(key, &fakeStrategy{name: key, fn: func(v *venue.Venue) ([]event.Event, error) {
			if v.Key == "b" {
				return nil, &parser.ParseError{VenueKey: v.Key, Message: "unusable"}
			}
			return []event.Event{makeEvent(v.Key, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC))}, nil
		}})
	}
	c := testCoordinator(registry)

	events := c.ScrapeAll(context.Background(), []venue.Venue{
		makeVenue("a"), makeVenue("b"), makeVenue("c"),
	})

	require.Len(t, events, 2)
	errs := c.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, "b", errs[0].VenueKey)
}

func TestWindowFilter(t *testing.T) {
	dates := []time.Time{
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), // yesterday: dropped
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),  // today: kept
		time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC),  // day 7: kept
		time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC),  // day 8: dropped
	}
	registry := parser.NewRegistry()
	registry.RegisterSpecific("cal", &fakeStrategy{name: "cal", fn: func(v *venue.Venue) ([]event.Event, error) {
		var out []event.Event
		for _, d := range dates {
			out = append(out, makeEvent(v.Key, d))
		}
		return out, nil
	}})
	c := testCoordinator(registry)

	events := c.ScrapeAll(context.Background(), []venue.Venue{makeVenue("cal")})
	require.Len(t, events, 2)
	require.Equal(t, 1, events[0].Date.Day())
	require.Equal(t, 8, events[1].Date.Day())
}

func TestOutputSortedAcrossVenues(t *testing.T) {
	at := func(day, hour int) time.Time {
		return time.Date(2025, 7, day, hour, 0, 0, 0, time.UTC)
	}
	registry := parser.NewRegistry()
	registry.RegisterSpecific("late", &fakeStrategy{name: "late", fn: func(v *venue.Venue) ([]event.Event, error) {
		e := makeEvent(v.Key, at(2, 0))
		start := at(2, 21)
		e.StartTime = &start
		return []event.Event{e}, nil
	}})
	registry.RegisterSpecific("early", &fakeStrategy{name: "early", fn: func(v *venue.Venue) ([]event.Event, error) {
		e := makeEvent(v.Key, at(2, 0))
		start := at(2, 18)
		e.StartTime = &start
		dateOnly := makeEvent(v.Key, at(3, 0))
		return []event.Event{dateOnly, e}, nil
	}})
	c := testCoordinator(registry)

	events := c.ScrapeAll(context.Background(), []venue.Venue{
		makeVenue("late"), makeVenue("early"),
	})

	require.Len(t, events, 3)
	require.Equal(t, 18, events[0].StartTime.Hour())
	require.Equal(t, 21, events[1].StartTime.Hour())
	require.Nil(t, events[2].StartTime)
}

func TestUserMessagesDedup(t *testing.T) {
	registry := parser.NewRegistry()
	fail := func(v *venue.Venue) ([]event.Event, error) {
		return nil, &parser.ParseError{VenueKey: v.Key, Message: "unusable"}
	}
	registry.RegisterSpecific("one", &fakeStrategy{name: "one", fn: fail})
	registry.RegisterSpecific("two", &fakeStrategy{name: "two", fn: fail})
	c := testCoordinator(registry)

	// Two venue entries sharing a display name plus a distinct one.
	dupA := makeVenue("one")
	dupA.Name = "The Corner Bar"
	dupB := makeVenue("two")
	dupB.Name = "The Corner Bar"

	c.ScrapeAll(context.Background(), []venue.Venue{dupA, dupB, makeVenue("unresolvable")})

	msgs := c.UserMessages()
	require.Equal(t, []string{
		"Failed to fetch information for: The Corner Bar",
		"Failed to fetch information for: Venue unresolvable",
	}, msgs)
}

func TestErrorsResetBetweenRuns(t *testing.T) {
	registry := parser.NewRegistry()
	registry.RegisterSpecific("ok", &fakeStrategy{name: "ok", fn: func(v *venue.Venue) ([]event.Event, error) {
		return nil, nil
	}})
	c := testCoordinator(registry)

	c.ScrapeAll(context.Background(), []venue.Venue{makeVenue("unresolvable")})
	require.Len(t, c.Errors(), 1)

	c.ScrapeAll(context.Background(), []venue.Venue{makeVenue("ok")})
	require.Empty(t, c.Errors())
}

func TestFilterValidAppliedToStrategyOutput(t *testing.T) {
	registry := parser.NewRegistry()
	registry.RegisterSpecific("messy", &fakeStrategy{name: "messy", fn: func(v *venue.Venue) ([]event.Event, error) {
		good := makeEvent(v.Key, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC))
		noTitle := good
		noTitle.Title = "   "
		noDate := good
		noDate.Date = time.Time{}
		return []event.Event{good, noTitle, noDate}, nil
	}})
	c := testCoordinator(registry)

	events := c.ScrapeAll(context.Background(), []venue.Venue{makeVenue("messy")})
	require.Len(t, events, 1)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"parse error", &parser.ParseError{VenueKey: "x", Message: "bad"}, TypeParser},
		{"wrapped parse error", errors.New("plain"), TypeUnexpected},
		{"deadline", context.DeadlineExceeded, TypeNetworkTimeout},
		{"net timeout", timeoutErr{}, TypeNetworkTimeout},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, TypeNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
