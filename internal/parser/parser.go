package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/venue-events/internal/event"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

// Strategy converts one fetched payload into zero or more normalized events
// for a venue. Implementations must filter invalid events before returning
// and must report malformed input as a *ParseError rather than fabricating
// data.
type Strategy interface {
	// Name tags the strategy in logs and registry listings.
	Name() string

	Extract(ctx context.Context, client *fetch.Client, v *venue.Venue) ([]event.Event, error)
}

// ParseError marks a definitive extraction failure: the payload shape is
// wrong, so retrying the same request cannot help. The coordinator treats it
// as fatal for the venue without retry.
type ParseError struct {
	VenueKey string
	Message  string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing %s: %s: %v", e.VenueKey, e.Message, e.Err)
	}
	return fmt.Sprintf("parsing %s: %s", e.VenueKey, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// fetchBody performs a GET and converts status-level failures (non-200,
// empty body) into ParseErrors. Transport errors pass through untouched so
// the coordinator can classify them as retryable.
func fetchBody(ctx context.Context, client *fetch.Client, v *venue.Venue, url string, params map[string]string) ([]byte, error) {
	body, err := client.Get(ctx, url, params)
	if err != nil {
		return nil, wrapFetchErr(err, v)
	}
	return body, nil
}

func wrapFetchErr(err error, v *venue.Venue) error {
	var statusErr *fetch.StatusError
	var emptyErr *fetch.EmptyBodyError
	if errors.As(err, &statusErr) || errors.As(err, &emptyErr) {
		return &ParseError{VenueKey: v.Key, Message: "unusable response", Err: err}
	}
	return err
}

// fetchDocument fetches a page and parses it with goquery.
func fetchDocument(ctx context.Context, client *fetch.Client, v *venue.Venue, url string) (*goquery.Document, error) {
	body, err := fetchBody(ctx, client, v, url, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{VenueKey: v.Key, Message: "parsing HTML", Err: err}
	}
	return doc, nil
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// stripTags removes HTML tags and unescapes entities, collapsing the result
// to trimmed text. Used on WordPress rendered fields.
func stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

// collapseSpace joins all whitespace runs to single spaces, matching how
// multi-node date cells should read.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stringValue renders a scalar JSON value as a trimmed string. Non-scalar
// values yield "" since they cannot be an event field.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%v", t)
	default:
		return ""
	}
}
