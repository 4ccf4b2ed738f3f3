package parser

import (
	"strconv"
	"strings"
)

// Dig traverses nested maps and slices using dot+index notation, e.g.
// "data.events" or "results.0.items". Returns nil when any step is missing
// or mistyped.
func Dig(obj interface{}, path string) interface{} {
	if path == "" {
		return obj
	}
	for _, key := range strings.Split(path, ".") {
		switch t := obj.(type) {
		case map[string]interface{}:
			obj = t[key]
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil
			}
			obj = t[idx]
		default:
			return nil
		}
		if obj == nil {
			return nil
		}
	}
	return obj
}

// FieldMap translates logical event fields (title, date, start_time,
// end_time, description) to the source API's property names. A nil map is
// usable and yields the per-strategy defaults.
type FieldMap map[string]string

// Key returns the source property name for a logical field, or the
// strategy's default when unmapped.
func (m FieldMap) Key(logical, fallback string) string {
	if v, ok := m[logical]; ok && v != "" {
		return v
	}
	return fallback
}
