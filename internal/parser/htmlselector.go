package parser

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/logger"
	"github.com/pfrederiksen/venue-events/internal/timezone"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

// HTMLSelector extracts events from HTML pages using CSS selectors from the
// venue's parser_config:
//
//	event_container       selector for one event node (default ".event-item")
//	title_selector        selector inside the container (default ".event-title")
//	date_selector         selector inside the container (default ".event-date")
//	time_selector         optional; text is split as a start-end range
//	description_selector  optional
//	date_format           "auto" for fuzzy parsing, else a strict Go layout
type HTMLSelector struct{}

// NewHTMLSelector creates the generic CSS-selector strategy.
func NewHTMLSelector() *HTMLSelector {
	return &HTMLSelector{}
}

func (s *HTMLSelector) Name() string { return "html-selector" }

func (s *HTMLSelector) Extract(ctx context.Context, client *fetch.Client, v *venue.Venue) ([]event.Event, error) {
	cfg := v.ParserConfig
	containerSel := cfg.String("event_container", ".event-item")
	titleSel := cfg.String("title_selector", ".event-title")
	dateSel := cfg.String("date_selector", ".event-date")
	timeSel := cfg.String("time_selector", "")
	descSel := cfg.String("description_selector", "")
	dateFormat := cfg.String("date_format", event.FormatAuto)
	loc := timezone.Load(v.Timezone)

	doc, err := fetchDocument(ctx, client, v, v.URL)
	if err != nil {
		return nil, err
	}

	containers := doc.Find(containerSel)
	if containers.Length() == 0 {
		logger.Warn("no event containers matched", logger.Fields{
			"venue":    v.Key,
			"selector": containerSel,
			"url":      v.URL,
		})
		return nil, nil
	}

	var events []event.Event
	containers.Each(func(_ int, sel *goquery.Selection) {
		if e, ok := s.parseContainer(sel, v, titleSel, dateSel, timeSel, descSel, dateFormat, loc); ok {
			events = append(events, e)
		}
	})

	logger.Debug("html-selector extraction complete", logger.Fields{
		"venue":  v.Key,
		"events": len(events),
	})
	return event.FilterValid(events), nil
}

// parseContainer extracts one event from a container node. A container
// contributing no valid title+date yields nothing and does not abort the
// page.
func (s *HTMLSelector) parseContainer(sel *goquery.Selection, v *venue.Venue, titleSel, dateSel, timeSel, descSel, dateFormat string, loc *time.Location) (event.Event, bool) {
	title := strings.TrimSpace(sel.Find(titleSel).First().Text())
	if title == "" {
		return event.Event{}, false
	}

	dateText := collapseSpace(sel.Find(dateSel).First().Text())
	date := event.ParseDate(dateText, dateFormat, loc)
	if date.IsZero() {
		return event.Event{}, false
	}

	var start, end *time.Time
	if timeSel != "" {
		if timeText := strings.TrimSpace(sel.Find(timeSel).First().Text()); timeText != "" {
			start, end = event.ParseTimeRange(timeText, date)
		}
	}

	var description string
	if descSel != "" {
		description = strings.TrimSpace(sel.Find(descSel).First().Text())
	}

	return event.Event{
		VenueKey:         v.Key,
		VenueName:        v.Name,
		Title:            title,
		Date:             date,
		StartTime:        start,
		EndTime:          end,
		Description:      description,
		ExtractionMethod: event.MethodHTML,
	}, true
}
