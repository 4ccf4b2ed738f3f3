package parser

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/logger"
	"github.com/pfrederiksen/venue-events/internal/timezone"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

// endpointPatterns are the URL shapes scanned for when a venue doesn't
// configure api_url: inline JS on event pages usually references the
// backing JSON API directly.
var endpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://[^\s"']+/api/events[^\s"']*`),
	regexp.MustCompile(`https?://api\.[^\s"']+/events[^\s"']*`),
}

// AJAX extracts events from ad-hoc JSON endpoints. parser_config keys:
//
//	api_url        the endpoint; when absent the venue page is scanned for
//	               likely event-API URLs before giving up empty
//	method         GET (default) or POST (params sent as a JSON body)
//	params         request parameters
//	response_path  dot+index path to the events array
//	field_map      logical field -> item property (defaults: name, start,
//	               start_time, end_time, description)
type AJAX struct{}

// NewAJAX creates the generic AJAX/JSON strategy.
func NewAJAX() *AJAX {
	return &AJAX{}
}

func (s *AJAX) Name() string { return "ajax" }

func (s *AJAX) Extract(ctx context.Context, client *fetch.Client, v *venue.Venue) ([]event.Event, error) {
	cfg := v.ParserConfig
	apiURL := cfg.String("api_url", "")
	method := strings.ToUpper(cfg.String("method", "GET"))
	responsePath := cfg.String("response_path", "")
	fieldMap := FieldMap(cfg.StringMap("field_map"))
	loc := timezone.Load(v.Timezone)

	if apiURL == "" {
		var err error
		apiURL, err = s.discoverEndpoint(ctx, client, v)
		if err != nil {
			return nil, err
		}
		if apiURL == "" {
			logger.Warn("no AJAX endpoint found", logger.Fields{
				"venue": v.Key,
				"url":   v.URL,
			})
			return nil, nil
		}
	}

	var body []byte
	var err error
	if method == "POST" {
		body, err = client.PostJSON(ctx, apiURL, cfg["params"])
		if err != nil {
			err = wrapFetchErr(err, v)
		}
	} else {
		body, err = fetchBody(ctx, client, v, apiURL, cfg.StringMap("params"))
	}
	if err != nil {
		return nil, err
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ParseError{VenueKey: v.Key, Message: "decoding JSON response", Err: err}
	}

	if responsePath != "" {
		data = Dig(data, responsePath)
		if data == nil {
			logger.Warn("response_path yielded nothing", logger.Fields{
				"venue": v.Key,
				"path":  responsePath,
				"url":   apiURL,
			})
			return nil, nil
		}
	}

	items, ok := data.([]interface{})
	if !ok {
		logger.Warn("expected a list of events", logger.Fields{
			"venue": v.Key,
			"path":  responsePath,
			"url":   apiURL,
		})
		return nil, nil
	}

	var events []event.Event
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if e, ok := s.mapItem(item, fieldMap, v, loc); ok {
			events = append(events, e)
		}
	}

	logger.Debug("ajax extraction complete", logger.Fields{
		"venue":  v.Key,
		"events": len(events),
	})
	return event.FilterValid(events), nil
}

// mapItem maps one response item; items unmappable to a valid title+date
// are dropped individually.
func (s *AJAX) mapItem(item map[string]interface{}, fieldMap FieldMap, v *venue.Venue, loc *time.Location) (event.Event, bool) {
	title := stringValue(item[fieldMap.Key("title", "name")])
	if title == "" {
		return event.Event{}, false
	}

	date := s.parseWhen(stringValue(item[fieldMap.Key("date", "start")]), loc)
	if date.IsZero() {
		return event.Event{}, false
	}

	var startTime, endTime *time.Time
	if t := s.parseWhen(stringValue(item[fieldMap.Key("start_time", "start_time")]), loc); !t.IsZero() {
		startTime = &t
	} else if event.HasClock(date) {
		startTime = &date
	}
	if t := s.parseWhen(stringValue(item[fieldMap.Key("end_time", "end_time")]), loc); !t.IsZero() {
		endTime = &t
	}

	return event.Event{
		VenueKey:         v.Key,
		VenueName:        v.Name,
		Title:            title,
		Date:             date,
		StartTime:        startTime,
		EndTime:          endTime,
		Description:      stringValue(item[fieldMap.Key("description", "description")]),
		ExtractionMethod: event.MethodAPI,
	}, true
}

// parseWhen tries ISO first, then fuzzy natural-language parsing, since
// ad-hoc APIs ship both.
func (s *AJAX) parseWhen(text string, loc *time.Location) time.Time {
	if text == "" {
		return time.Time{}
	}
	if t := event.ParseISO(text, loc); !t.IsZero() {
		return t
	}
	return event.ParseAuto(text, loc)
}

// discoverEndpoint scans the venue's HTML page for likely event-API URLs.
// Transport errors propagate for retry; an unscannable page just means no
// endpoint.
func (s *AJAX) discoverEndpoint(ctx context.Context, client *fetch.Client, v *venue.Venue) (string, error) {
	body, err := fetchBody(ctx, client, v, v.URL, nil)
	if err != nil {
		return "", err
	}
	page := string(body)
	for _, pattern := range endpointPatterns {
		if m := pattern.FindString(page); m != "" {
			logger.Debug("discovered AJAX endpoint", logger.Fields{
				"venue":    v.Key,
				"endpoint": m,
			})
			return m, nil
		}
	}
	return "", nil
}
