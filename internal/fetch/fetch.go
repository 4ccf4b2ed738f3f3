// Package fetch provides the HTTP adapter used by every extraction
// strategy: a resty-backed client with a descriptive User-Agent, a
// per-request timeout, and uniform status handling. A 200 with a non-empty
// body is the only success; everything else surfaces as a typed error the
// coordinator can classify.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds the total time for a single request.
	DefaultTimeout = 60 * time.Second

	// UserAgent identifies the aggregator to venue websites.
	UserAgent = "venue-events/1.0 (github.com/pfrederiksen/venue-events)"
)

// StatusError reports a non-200 response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	switch e.Code {
	case http.StatusNotFound:
		return fmt.Sprintf("page not found (404): %s", e.URL)
	case http.StatusForbidden:
		return fmt.Sprintf("access forbidden (403): %s", e.URL)
	case http.StatusInternalServerError:
		return fmt.Sprintf("server error (500): %s", e.URL)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.URL)
	}
}

// EmptyBodyError reports a 200 response with no usable body.
type EmptyBodyError struct {
	URL string
}

func (e *EmptyBodyError) Error() string {
	return fmt.Sprintf("empty response from: %s", e.URL)
}

// Client is the shared HTTP client handed to strategies. It is safe for
// concurrent use.
type Client struct {
	rc *resty.Client
}

// New creates a Client with the given total request timeout. A zero timeout
// uses DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent).
		SetRetryCount(0) // the coordinator owns retry policy
	return &Client{rc: rc}
}

// HTTPClient exposes the underlying http.Client so tests can install a mock
// transport.
func (c *Client) HTTPClient() *http.Client {
	return c.rc.GetClient()
}

// Get performs a GET with optional query params and returns the raw body.
func (c *Client) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	req := c.rc.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return c.checkResponse(resp, url)
}

// PostJSON performs a POST with a JSON-encoded body and returns the raw
// response body.
func (c *Client) PostJSON(ctx context.Context, url string, body interface{}) ([]byte, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return c.checkResponse(resp, url)
}

func (c *Client) checkResponse(resp *resty.Response, url string) ([]byte, error) {
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode(), URL: url}
	}
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &EmptyBodyError{URL: url}
	}
	return body, nil
}
