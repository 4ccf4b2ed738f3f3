// Package venue defines the per-run venue configuration record and the
// loader for venues files. A Venue is constructed once from configuration
// and read-only for the rest of the run.
package venue

import (
	"fmt"
)

// Source types recognized by the parser registry. SourceCustom is the
// reserved sentinel for venues that only work with a hand-written strategy
// registered under their key.
const (
	SourceHTML      = "html"
	SourceJSONLD    = "json-ld"
	SourceWordPress = "wordpress"
	SourceAJAX      = "ajax"
	SourceCustom    = "custom"
)

var validSourceTypes = map[string]bool{
	SourceHTML:      true,
	SourceJSONLD:    true,
	SourceWordPress: true,
	SourceAJAX:      true,
	SourceCustom:    true,
}

// Venue is one external event source.
type Venue struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	SourceType string `json:"source_type"`

	// Timezone is an IANA name; empty means the aggregator default.
	Timezone string `json:"timezone,omitempty"`

	// ParserConfig is interpreted only by the selected strategy; its
	// schema is strategy-specific and opaque to everything else.
	ParserConfig Config `json:"parser_config,omitempty"`
}

// Validate checks the fields every venue must carry regardless of strategy.
func (v *Venue) Validate() error {
	if v.Key == "" {
		return fmt.Errorf("venue missing key")
	}
	if v.Name == "" {
		return fmt.Errorf("venue %q missing name", v.Key)
	}
	if v.URL == "" {
		return fmt.Errorf("venue %q missing url", v.Key)
	}
	if !validSourceTypes[v.SourceType] {
		return fmt.Errorf("venue %q has invalid source_type %q", v.Key, v.SourceType)
	}
	return nil
}

// Config is the open key->value map strategies read their settings from.
// Accessors tolerate missing keys and JSON's float64 numbers.
type Config map[string]interface{}

// String returns the string at key, or fallback when absent or not a string.
func (c Config) String(key, fallback string) string {
	if v, ok := c[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Int returns the integer at key, tolerating JSON float64 and string forms.
func (c Config) Int(key string, fallback int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

// StringMap returns the map at key with scalar values rendered as strings.
// Used for field maps and request params.
func (c Config) StringMap(key string) map[string]string {
	raw, ok := c[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			// Render integral floats without a decimal point so numeric
			// config values survive the JSON round-trip as "186" not "186.000000".
			if t == float64(int64(t)) {
				out[k] = fmt.Sprintf("%d", int64(t))
			} else {
				out[k] = fmt.Sprintf("%v", t)
			}
		default:
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

// StringSlice returns the list of strings at key, or nil when absent.
func (c Config) StringSlice(key string) []string {
	raw, ok := c[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
