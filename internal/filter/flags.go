package filter

import (
	"fmt"
	"strings"
	"time"
)

// dateFlagLayouts are the forms accepted by --from/--to flag values.
var dateFlagLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// FromFlags builds a filter from CLI flag values. Empty flag values leave
// their criterion inactive.
func FromFlags(venues, titles []string, from, to string, weekendsOnly bool) (*Filter, error) {
	f := New()
	f.Venues = splitTrim(venues)
	f.Titles = splitTrim(titles)
	f.WeekendsOnly = weekendsOnly

	if from != "" {
		t, err := parseDateFlag(from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		f.DateFrom = &t
	}
	if to != "" {
		t, err := parseDateFlag(to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		f.DateTo = &t
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return nil, fmt.Errorf("--to date %s is before --from date %s", to, from)
	}
	return f, nil
}

func parseDateFlag(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateFlagLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// splitTrim flattens comma-separated flag values and trims whitespace, so
// both --venue a,b and repeated --venue flags work.
func splitTrim(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}
