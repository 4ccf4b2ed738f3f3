package parser

import (
	"context"
	"encoding/json"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/logger"
	"github.com/pfrederiksen/venue-events/internal/timezone"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

// defaultEventTypes is the Schema.org Event family recognized when the venue
// doesn't configure its own event_types list.
var defaultEventTypes = []string{
	"Event",
	"MusicEvent",
	"ComedyEvent",
	"TheaterEvent",
	"DanceEvent",
	"SportsEvent",
	"FoodEvent",
	"Festival",
	"ScreeningEvent",
	"SocialEvent",
	"EducationEvent",
	"BusinessEvent",
	"ExhibitionEvent",
}

// JSONLD extracts events from Schema.org JSON-LD blocks embedded in HTML
// pages. parser_config keys:
//
//	event_types  @type values that qualify as events (default: Event family)
//	field_map    logical field -> JSON property (defaults: name, startDate,
//	             endDate, description)
type JSONLD struct{}

// NewJSONLD creates the generic JSON-LD strategy.
func NewJSONLD() *JSONLD {
	return &JSONLD{}
}

func (s *JSONLD) Name() string { return "json-ld" }

func (s *JSONLD) Extract(ctx context.Context, client *fetch.Client, v *venue.Venue) ([]event.Event, error) {
	cfg := v.ParserConfig
	eventTypes := cfg.StringSlice("event_types")
	if len(eventTypes) == 0 {
		eventTypes = defaultEventTypes
	}
	fieldMap := FieldMap(cfg.StringMap("field_map"))
	loc := timezone.Load(v.Timezone)

	doc, err := fetchDocument(ctx, client, v, v.URL)
	if err != nil {
		return nil, err
	}

	scripts := doc.Find(`script[type="application/ld+json"]`)
	if scripts.Length() == 0 {
		logger.Warn("no JSON-LD blocks found", logger.Fields{
			"venue": v.Key,
			"url":   v.URL,
		})
		return nil, nil
	}

	typeSet := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		typeSet[t] = true
	}

	var events []event.Event
	scripts.Each(func(_ int, sel *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			// Malformed blocks are common on real sites; skip, don't abort.
			logger.Debug("skipping malformed JSON-LD block", logger.Fields{
				"venue": v.Key,
			})
			return
		}
		events = append(events, s.walk(data, typeSet, fieldMap, v, loc)...)
	})

	logger.Debug("json-ld extraction complete", logger.Fields{
		"venue":  v.Key,
		"events": len(events),
	})
	return event.FilterValid(events), nil
}

// walk recursively finds event nodes inside arrays, @graph wrappers, and
// nested objects. A node qualifies when its @type (scalar or list)
// intersects the configured event types; matched nodes are mapped without
// descending further.
func (s *JSONLD) walk(data interface{}, typeSet map[string]bool, fieldMap FieldMap, v *venue.Venue, loc *time.Location) []event.Event {
	var results []event.Event

	switch t := data.(type) {
	case []interface{}:
		for _, item := range t {
			results = append(results, s.walk(item, typeSet, fieldMap, v, loc)...)
		}
	case map[string]interface{}:
		if typeMatches(t["@type"], typeSet) {
			if e, ok := s.mapEvent(t, fieldMap, v, loc); ok {
				results = append(results, e)
			}
			return results
		}
		for _, value := range t {
			switch value.(type) {
			case map[string]interface{}, []interface{}:
				results = append(results, s.walk(value, typeSet, fieldMap, v, loc)...)
			}
		}
	}
	return results
}

func typeMatches(ldType interface{}, typeSet map[string]bool) bool {
	switch t := ldType.(type) {
	case string:
		return typeSet[t]
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && typeSet[s] {
				return true
			}
		}
	}
	return false
}

func (s *JSONLD) mapEvent(data map[string]interface{}, fieldMap FieldMap, v *venue.Venue, loc *time.Location) (event.Event, bool) {
	title := stringValue(data[fieldMap.Key("title", "name")])
	if title == "" {
		return event.Event{}, false
	}

	startStr := stringValue(data[fieldMap.Key("date", "startDate")])
	if startStr == "" {
		return event.Event{}, false
	}
	start := event.ParseISO(startStr, loc)
	if start.IsZero() {
		return event.Event{}, false
	}

	var startTime, endTime *time.Time
	if event.HasClock(start) {
		startTime = &start
	}
	if endStr := stringValue(data[fieldMap.Key("end_time", "endDate")]); endStr != "" {
		if end := event.ParseISO(endStr, loc); !end.IsZero() {
			endTime = &end
		}
	}

	return event.Event{
		VenueKey:         v.Key,
		VenueName:        v.Name,
		Title:            title,
		Date:             start,
		StartTime:        startTime,
		EndTime:          endTime,
		Description:      stringValue(data[fieldMap.Key("description", "description")]),
		ExtractionMethod: event.MethodJSONLD,
	}, true
}
