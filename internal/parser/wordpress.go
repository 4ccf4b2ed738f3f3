package parser

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/logger"
	"github.com/pfrederiksen/venue-events/internal/timezone"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

const (
	defaultAPIPath    = "/wp-json/wp/v2/posts"
	categoriesAPIPath = "/wp-json/wp/v2/categories"
	defaultPerPage    = 20
	categoryCacheSize = 128
)

// WordPress extracts events from sites exposing the WordPress REST API,
// including sites running The Events Calendar (Tribe) plugin via
// response_path. parser_config keys:
//
//	api_path       REST path (default /wp-json/wp/v2/posts)
//	per_page       page size (default 20)
//	category_id    numeric category filter, sent as categories=<id>
//	category_slug  resolved to an id via the categories API when id absent
//	response_path  dot-path into a wrapped envelope (e.g. "events" for Tribe)
//	field_map      logical field -> item property; without it items are
//	               treated as vanilla posts anchored on their publish date
type WordPress struct {
	// categories resolves slowly and identically across venues on the same
	// site, so slug lookups are cached for the life of the run.
	categoryCache *lru.Cache[string, int]
}

// NewWordPress creates the generic WordPress/Tribe strategy.
func NewWordPress() *WordPress {
	cache, err := lru.New[string, int](categoryCacheSize)
	if err != nil {
		// only possible with a non-positive size
		panic(err)
	}
	return &WordPress{categoryCache: cache}
}

func (s *WordPress) Name() string { return "wordpress" }

func (s *WordPress) Extract(ctx context.Context, client *fetch.Client, v *venue.Venue) ([]event.Event, error) {
	cfg := v.ParserConfig
	apiPath := cfg.String("api_path", defaultAPIPath)
	perPage := cfg.Int("per_page", defaultPerPage)
	categoryID := cfg.Int("category_id", 0)
	categorySlug := cfg.String("category_slug", "")
	responsePath := cfg.String("response_path", "")
	fieldMap := FieldMap(cfg.StringMap("field_map"))
	hasFieldMap := len(fieldMap) > 0
	loc := timezone.Load(v.Timezone)

	baseURL := strings.TrimRight(v.URL, "/")

	if categorySlug != "" && categoryID == 0 {
		categoryID = s.resolveCategorySlug(ctx, client, baseURL, categorySlug)
	}

	params := map[string]string{
		"per_page": strconv.Itoa(perPage),
		"_embed":   "true",
	}
	if categoryID != 0 {
		params["categories"] = strconv.Itoa(categoryID)
	}

	url := baseURL + apiPath
	body, err := fetchBody(ctx, client, v, url, params)
	if err != nil {
		return nil, err
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ParseError{VenueKey: v.Key, Message: "decoding WordPress API response", Err: err}
	}

	if responsePath != "" {
		data = Dig(data, responsePath)
		if data == nil {
			logger.Warn("response_path yielded nothing", logger.Fields{
				"venue": v.Key,
				"path":  responsePath,
				"url":   url,
			})
			return nil, nil
		}
	}

	items, ok := data.([]interface{})
	if !ok {
		logger.Warn("unexpected WordPress API response shape", logger.Fields{
			"venue": v.Key,
			"url":   url,
		})
		return nil, nil
	}

	var events []event.Event
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		var e event.Event
		if hasFieldMap {
			e, ok = s.mapItem(item, fieldMap, v, loc)
		} else {
			e, ok = s.parsePost(item, v, loc)
		}
		if ok {
			events = append(events, e)
		}
	}

	logger.Debug("wordpress extraction complete", logger.Fields{
		"venue":  v.Key,
		"events": len(events),
	})
	return event.FilterValid(events), nil
}

// parsePost maps a vanilla WordPress post: rendered title/excerpt with tags
// stripped, anchored on the publish date.
func (s *WordPress) parsePost(post map[string]interface{}, v *venue.Venue, loc *time.Location) (event.Event, bool) {
	title := stripTags(renderedField(post["title"]))
	if title == "" {
		return event.Event{}, false
	}

	date := event.ParseISO(stringValue(post["date"]), loc)
	if date.IsZero() {
		return event.Event{}, false
	}

	var startTime *time.Time
	if event.HasClock(date) {
		startTime = &date
	}

	return event.Event{
		VenueKey:         v.Key,
		VenueName:        v.Name,
		Title:            title,
		Date:             date,
		StartTime:        startTime,
		Description:      stripTags(renderedField(post["excerpt"])),
		ExtractionMethod: event.MethodAPI,
	}, true
}

// mapItem maps a response item using the configured field map, tolerating
// both plain-string and {rendered: ...} title shapes (Tribe uses plain
// strings, vanilla WP uses rendered objects).
func (s *WordPress) mapItem(item map[string]interface{}, fieldMap FieldMap, v *venue.Venue, loc *time.Location) (event.Event, bool) {
	title := stripTags(renderedField(item[fieldMap.Key("title", "title")]))
	if title == "" {
		return event.Event{}, false
	}

	date := event.ParseISO(stringValue(item[fieldMap.Key("date", "start_date")]), loc)
	if date.IsZero() {
		return event.Event{}, false
	}

	var startTime, endTime *time.Time
	if event.HasClock(date) {
		startTime = &date
	}
	if endStr := stringValue(item[fieldMap.Key("end_time", "end_date")]); endStr != "" {
		if end := event.ParseISO(endStr, loc); !end.IsZero() {
			endTime = &end
		}
	}

	return event.Event{
		VenueKey:         v.Key,
		VenueName:        v.Name,
		Title:            title,
		Date:             date,
		StartTime:        startTime,
		EndTime:          endTime,
		Description:      stripTags(stringValue(item[fieldMap.Key("description", "description")])),
		ExtractionMethod: event.MethodAPI,
	}, true
}

// renderedField returns the string form of a field that may be either a
// plain string or a WP {"rendered": "..."} object.
func renderedField(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		return stringValue(m["rendered"])
	}
	return stringValue(v)
}

// resolveCategorySlug looks up a category's numeric id by slug. Failures
// degrade to an unfiltered query rather than failing the venue.
func (s *WordPress) resolveCategorySlug(ctx context.Context, client *fetch.Client, baseURL, slug string) int {
	cacheKey := baseURL + "|" + slug
	if id, ok := s.categoryCache.Get(cacheKey); ok {
		return id
	}

	body, err := client.Get(ctx, baseURL+categoriesAPIPath, map[string]string{
		"slug":     slug,
		"per_page": "1",
	})
	if err != nil {
		logger.Warn("failed to resolve category slug", logger.Fields{
			"slug": slug,
			"url":  baseURL,
		})
		return 0
	}

	var cats []struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &cats); err != nil || len(cats) == 0 {
		logger.Warn("no category found for slug", logger.Fields{
			"slug": slug,
			"url":  baseURL,
		})
		return 0
	}

	s.categoryCache.Add(cacheKey, cats[0].ID)
	return cats[0].ID
}
