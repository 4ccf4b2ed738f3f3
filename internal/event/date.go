package event

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FormatAuto selects fuzzy date parsing instead of a strict layout.
const FormatAuto = "auto"

// dateLayouts are probed in order by ParseAuto after the text is cleaned.
// Layouts without a year get the current year in the target location.
var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"1.2.2006",
	"1.2.06",
	"2 January 2006",
	"2 Jan 2006",
}

var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"1/2",
}

var (
	ordinalPattern = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	weekdayPattern = regexp.MustCompile(`(?i)^(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)[,.]?\s+`)
	spacePattern   = regexp.MustCompile(`\s+`)

	// Embedded-date patterns used when the cleaned text doesn't parse
	// whole, e.g. "Live music July 4, 2025 on the patio".
	monthDatePattern   = regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+\d{1,2}(?:,?\s*\d{4})?`)
	numericDatePattern = regexp.MustCompile(`\d{1,2}[/.]\d{1,2}[/.]\d{2,4}|\d{4}-\d{2}-\d{2}`)
)

// ParseDate parses date text according to the configured format: FormatAuto
// triggers fuzzy probing, anything else is treated as a strict Go layout.
// Returns the zero time when the text cannot be parsed.
func ParseDate(text, format string, loc *time.Location) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}
	if format == "" || format == FormatAuto {
		return ParseAuto(text, loc)
	}
	t, err := time.ParseInLocation(format, text, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ParseAuto attempts natural-language date parsing: the text is cleaned of
// ordinal suffixes and weekday prefixes, probed against known layouts, and
// finally scanned for an embedded date. Returns the zero time on failure.
func ParseAuto(text string, loc *time.Location) time.Time {
	cleaned := cleanDateText(text)
	if cleaned == "" {
		return time.Time{}
	}

	if t := probeLayouts(cleaned, loc); !t.IsZero() {
		return t
	}

	// The text may wrap the date in prose; extract the date-looking
	// substring and try again.
	if m := monthDatePattern.FindString(cleaned); m != "" {
		if t := probeLayouts(cleanDateText(m), loc); !t.IsZero() {
			return t
		}
	}
	if m := numericDatePattern.FindString(cleaned); m != "" {
		if t := probeLayouts(m, loc); !t.IsZero() {
			return t
		}
	}

	return time.Time{}
}

func cleanDateText(text string) string {
	text = strings.TrimSpace(text)
	text = ordinalPattern.ReplaceAllString(text, "$1")
	text = weekdayPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.Trim(text, " ,.")
}

func probeLayouts(text string, loc *time.Location) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			now := time.Now().In(loc)
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		}
	}
	return time.Time{}
}

// isoLayouts cover the datetime shapes seen across JSON-LD, WordPress, and
// ad-hoc JSON APIs. Offset-less layouts are interpreted in the venue's
// location.
var isoOffsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

var isoLocalLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05", // WordPress local datetime
	"2006-01-02",
}

// ParseISO parses an ISO-8601-style datetime, accepting Z or numeric
// offsets, offset-less local datetimes, the WordPress "YYYY-MM-DD HH:MM:SS"
// form, and bare dates. Returns the zero time on failure.
func ParseISO(text string, loc *time.Location) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}
	for _, layout := range isoOffsetLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.In(loc)
		}
	}
	for _, layout := range isoLocalLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// HasClock reports whether a parsed datetime carries a time-of-day. A
// datetime landing exactly on midnight is treated as date-only, which is the
// convention every strategy follows when deciding whether to populate
// StartTime.
func HasClock(t time.Time) bool {
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0
}

// dash-family separators: hyphen, en-dash, em-dash
var timeRangeSep = regexp.MustCompile(`\s*[-\x{2013}\x{2014}]\s*`)

var (
	clockPattern    = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(am|pm)?`)
	bareHourPattern = regexp.MustCompile(`(?i)(\d{1,2})\s*(am|pm)`)
)

// ParseTimeRange parses a time-range string like "7:00 PM - 10:00 PM"
// relative to date. Either side may be nil when unparseable; a single time
// yields only a start.
func ParseTimeRange(text string, date time.Time) (start, end *time.Time) {
	parts := timeRangeSep.Split(strings.TrimSpace(text), 2)
	for i, part := range parts {
		if i > 1 {
			break
		}
		parsed := parseClockTime(part, date)
		if i == 0 {
			start = parsed
		} else {
			end = parsed
		}
	}
	return start, end
}

// parseClockTime parses a single 12-hour clock time ("7:00 PM", "7pm")
// anchored to date's calendar day and location. Noon and midnight follow the
// 12-as-noon / 12-as-midnight convention.
func parseClockTime(text string, date time.Time) *time.Time {
	var hour, minute int
	var period string

	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		period = strings.ToLower(m[3])
	} else if m := bareHourPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		period = strings.ToLower(m[2])
	} else {
		return nil
	}

	switch {
	case period == "pm" && hour != 12:
		hour += 12
	case period == "am" && hour == 12:
		hour = 0
	}

	if hour > 23 || minute > 59 {
		return nil
	}

	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
	return &t
}
