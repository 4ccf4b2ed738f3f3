package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pfrederiksen/venue-events/internal/parser"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

// ErrorType is the closed taxonomy of per-venue failures.
type ErrorType string

const (
	// TypeConfiguration means no strategy could be resolved for the venue.
	// Fatal for that venue, never retried.
	TypeConfiguration ErrorType = "configuration_error"

	// TypeNetworkTimeout means a request exceeded its deadline.
	TypeNetworkTimeout ErrorType = "network_timeout"

	// TypeNetwork means transport-level I/O failed.
	TypeNetwork ErrorType = "network_error"

	// TypeParser means the payload shape was wrong. Retrying the same
	// request cannot help, so this is fatal immediately.
	TypeParser ErrorType = "parser_error"

	// TypeUnexpected is the catch-all, retried like network errors.
	TypeUnexpected ErrorType = "unexpected_error"
)

// Retryable reports whether another attempt could plausibly succeed.
func (t ErrorType) Retryable() bool {
	switch t {
	case TypeNetworkTimeout, TypeNetwork, TypeUnexpected:
		return true
	}
	return false
}

// ScrapingError is the single failure record a venue contributes to a run.
// Multiple retry attempts collapse into one of these.
type ScrapingError struct {
	VenueKey  string    `json:"venue_key"`
	VenueName string    `json:"venue_name"`
	Type      ErrorType `json:"error_type"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ScrapingError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.VenueKey, e.Type, e.Message)
}

// UserMessage renders the generic, non-leaking form shown to end users.
// Transport internals stay in developer logs.
func (e *ScrapingError) UserMessage() string {
	return "Failed to fetch information for: " + e.VenueName
}

// Classify maps an extraction error onto the taxonomy. Resolution failures
// and parse errors are definitive; deadline and transport errors are
// transient; anything else is unexpected but still worth retrying.
func Classify(err error) ErrorType {
	if errors.Is(err, parser.ErrNoStrategy) {
		return TypeConfiguration
	}

	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return TypeParser
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TypeNetworkTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return TypeNetworkTimeout
		}
		return TypeNetwork
	}

	return TypeUnexpected
}

// newError stamps a classified failure for a venue.
func newError(v *venue.Venue, errType ErrorType, err error, attempts int) *ScrapingError {
	details := ""
	if attempts > 1 {
		details = fmt.Sprintf("gave up after %d attempts", attempts)
	}
	return &ScrapingError{
		VenueKey:  v.Key,
		VenueName: v.Name,
		Type:      errType,
		Message:   err.Error(),
		Details:   details,
		Timestamp: time.Now(),
	}
}
