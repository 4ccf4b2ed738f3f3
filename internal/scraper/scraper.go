package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/logger"
	"github.com/pfrederiksen/venue-events/internal/parser"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

const (
	// DefaultMaxConcurrent bounds simultaneous venue scrapes so a long
	// venue list cannot open unbounded outbound connections.
	DefaultMaxConcurrent = 5

	// DefaultMaxRetries is the attempt budget per venue for transient
	// failures.
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the sleep before the second attempt; it
	// doubles each retry after that.
	DefaultBackoffBase = 1 * time.Second

	// DefaultWindowDays is the forward window events must fall in.
	DefaultWindowDays = 7
)

// Options tunes a Coordinator. The zero value gets sensible defaults.
type Options struct {
	MaxConcurrent int
	MaxRetries    int
	BackoffBase   time.Duration
	WindowDays    int

	// Now is injectable for window-filter tests. Defaults to time.Now.
	Now func() time.Time

	// Metrics is optional; when nil the run is uninstrumented.
	Metrics *Metrics
}

func (o *Options) normalize() {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Coordinator runs a scrape pass over a venue list. It is safe to reuse
// across runs; each run discards the previous run's errors.
type Coordinator struct {
	opts     Options
	client   *fetch.Client
	registry *parser.Registry

	mu   sync.Mutex
	errs []*ScrapingError
}

// New creates a Coordinator using the given fetch client and registry.
func New(client *fetch.Client, registry *parser.Registry, opts Options) *Coordinator {
	opts.normalize()
	return &Coordinator{
		opts:     opts,
		client:   client,
		registry: registry,
	}
}

// venueResult is the tagged outcome of one venue's task. Failures travel as
// values, never across the task boundary.
type venueResult struct {
	events []event.Event
	err    *ScrapingError
}

// ScrapeAll scrapes every venue concurrently, gathers per-venue results in
// input order, then filters to the forward window and sorts. Venue failures
// are collected, never raised.
func (c *Coordinator) ScrapeAll(ctx context.Context, venues []venue.Venue) []event.Event {
	c.mu.Lock()
	c.errs = nil
	c.mu.Unlock()

	logger.Info("starting scrape run", logger.Fields{
		"venues":         len(venues),
		"max_concurrent": c.opts.MaxConcurrent,
	})

	results := make([]venueResult, len(venues))
	sem := make(chan struct{}, c.opts.MaxConcurrent)
	var wg sync.WaitGroup

	for i := range venues {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = c.scrapeVenue(ctx, &venues[i])
		}(i)
	}
	wg.Wait()

	// Gather-then-merge: tasks never touch shared state while running.
	var all []event.Event
	var errs []*ScrapingError
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		all = append(all, res.events...)
	}

	c.mu.Lock()
	c.errs = errs
	c.mu.Unlock()

	all = c.windowFilter(all)
	event.Sort(all)

	logger.Info("scrape run complete", logger.Fields{
		"events": len(all),
		"errors": len(errs),
	})
	return all
}

// ScrapeOne runs a single venue as a full run: retry pipeline, window
// filter, sort, and error recording, so Errors and UserMessages reflect it
// just like ScrapeAll.
func (c *Coordinator) ScrapeOne(ctx context.Context, v *venue.Venue) ([]event.Event, *ScrapingError) {
	c.mu.Lock()
	c.errs = nil
	c.mu.Unlock()

	res := c.scrapeVenue(ctx, v)
	if res.err != nil {
		c.mu.Lock()
		c.errs = append(c.errs, res.err)
		c.mu.Unlock()
		return nil, res.err
	}

	events := c.windowFilter(res.events)
	event.Sort(events)
	return events, nil
}

func (c *Coordinator) scrapeVenue(ctx context.Context, v *venue.Venue) venueResult {
	started := time.Now()

	strategy, err := c.registry.Resolve(v)
	if err != nil {
		logger.Error("no strategy for venue", logger.Fields{
			"venue":       v.Key,
			"source_type": v.SourceType,
		}, err)
		c.opts.Metrics.observeVenue("failed", time.Since(started))
		c.opts.Metrics.recordError(TypeConfiguration)
		return venueResult{err: newError(v, TypeConfiguration, err, 1)}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.opts.BackoffBase
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 10 * time.Minute
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	var lastType ErrorType
	attempts := 0

	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		attempts = attempt
		events, err := strategy.Extract(ctx, c.client, v)
		if err == nil {
			events = event.FilterValid(events)
			logger.Info("venue scraped", logger.Fields{
				"venue":    v.Key,
				"strategy": strategy.Name(),
				"events":   len(events),
				"attempts": attempt,
			})
			c.opts.Metrics.observeVenue("success", time.Since(started))
			c.opts.Metrics.addEvents(events)
			return venueResult{events: events}
		}

		lastErr = err
		lastType = Classify(err)
		logger.Warn("venue attempt failed", logger.Fields{
			"venue":   v.Key,
			"attempt": attempt,
			"type":    string(lastType),
			"error":   err.Error(),
		})

		if !lastType.Retryable() {
			break
		}
		if attempt == c.opts.MaxRetries {
			break
		}

		c.opts.Metrics.recordRetry()
		select {
		case <-time.After(bo.NextBackOff()):
		case <-ctx.Done():
			lastErr = ctx.Err()
			lastType = Classify(lastErr)
		}
		if ctx.Err() != nil {
			break
		}
	}

	logger.Error("venue failed", logger.Fields{
		"venue":    v.Key,
		"type":     string(lastType),
		"attempts": attempts,
	}, lastErr)
	c.opts.Metrics.observeVenue("failed", time.Since(started))
	c.opts.Metrics.recordError(lastType)
	return venueResult{err: newError(v, lastType, lastErr, attempts)}
}

// windowFilter keeps events whose calendar date falls between today and
// today+WindowDays inclusive, evaluated in each event's own location (the
// venue timezone its dates were parsed in).
func (c *Coordinator) windowFilter(events []event.Event) []event.Event {
	now := c.opts.Now()
	kept := make([]event.Event, 0, len(events))
	for _, e := range events {
		loc := e.Date.Location()
		local := now.In(loc)
		start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		end := start.AddDate(0, 0, c.opts.WindowDays)
		day := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, loc)
		if day.Before(start) || day.After(end) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// Errors returns the failures collected by the most recent run.
func (c *Coordinator) Errors() []*ScrapingError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ScrapingError, len(c.errs))
	copy(out, c.errs)
	return out
}

// UserMessages renders the run's errors for end users: one generic message
// per failed venue, duplicates collapsed, first-seen order preserved.
func (c *Coordinator) UserMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(c.errs))
	var msgs []string
	for _, e := range c.errs {
		msg := e.UserMessage()
		if seen[msg] {
			continue
		}
		seen[msg] = true
		msgs = append(msgs, msg)
	}
	return msgs
}
