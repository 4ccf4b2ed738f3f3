// Package timezone centralizes timezone handling for the aggregator.
//
// Events are filtered and displayed relative to a venue's local time. Venues
// without an explicit timezone fall back to the aggregator default
// (America/Los_Angeles), matching the original deployment region.
package timezone

import (
	"strings"
	"time"

	"github.com/pfrederiksen/venue-events/internal/logger"
)

// DefaultName is the IANA name of the fallback timezone.
const DefaultName = "America/Los_Angeles"

// Default returns the fallback *time.Location. It panics only if the zone
// database is missing America/Los_Angeles, which would make every venue-local
// calculation wrong anyway.
func Default() *time.Location {
	loc, err := time.LoadLocation(DefaultName)
	if err != nil {
		panic("timezone: cannot load " + DefaultName + ": " + err.Error())
	}
	return loc
}

// Load resolves an IANA timezone name, falling back to Default for an empty
// or unknown name. Unknown names are logged at WARN since they indicate a
// venue configuration typo rather than a fatal condition.
func Load(name string) *time.Location {
	if name == "" {
		return Default()
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone, using default", logger.Fields{
			"timezone": name,
			"default":  DefaultName,
		})
		return Default()
	}
	return loc
}

// usZoneInfo maps IANA names to DST-neutral short labels and friendly names
// for US timezones.
var usZoneInfo = map[string][2]string{
	"America/Los_Angeles": {"PT", "Pacific Time"},
	"America/Denver":      {"MT", "Mountain Time"},
	"America/Chicago":     {"CT", "Central Time"},
	"America/New_York":    {"ET", "Eastern Time"},
	"US/Pacific":          {"PT", "Pacific Time"},
	"US/Mountain":         {"MT", "Mountain Time"},
	"US/Central":          {"CT", "Central Time"},
	"US/Eastern":          {"ET", "Eastern Time"},
}

// Label returns a short display label ("PT", "ET") for a timezone name. US
// zones get a DST-neutral abbreviation; other zones use the current zone
// abbreviation.
func Label(name string) string {
	if info, ok := usZoneInfo[name]; ok {
		return info[0]
	}
	return time.Now().In(Load(name)).Format("MST")
}

// FullName returns a human-readable timezone name ("Pacific Time"). Non-US
// zones derive a name from the IANA city ("America/Toronto" -> "Toronto Time").
func FullName(name string) string {
	if info, ok := usZoneInfo[name]; ok {
		return info[1]
	}
	city := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		city = name[idx+1:]
	}
	return strings.ReplaceAll(city, "_", " ") + " Time"
}

// FormatTime renders a clock time for display, like "2:00 PM PT". The
// timezone label is appended when name is non-empty.
func FormatTime(t time.Time, name string) string {
	s := strings.TrimPrefix(t.Format("3:04 PM"), "0")
	if name != "" {
		s += " " + Label(name)
	}
	return s
}
