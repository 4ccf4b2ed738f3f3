package parser

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pfrederiksen/venue-events/internal/venue"
)

// ErrNoStrategy is wrapped by Resolve when neither a specific nor a generic
// strategy matches a venue.
var ErrNoStrategy = errors.New("no strategy for venue")

// Registry maps a venue to exactly one strategy. Specific strategies (keyed
// by venue key) take precedence over generic ones (keyed by source type).
// The registry holds no per-venue state and is safe for concurrent lookup
// once constructed.
type Registry struct {
	specific map[string]Strategy
	generic  map[string]Strategy
}

// NewRegistry builds a registry with the four generic strategies installed
// under their source types and no specific strategies.
func NewRegistry() *Registry {
	return &Registry{
		specific: make(map[string]Strategy),
		generic: map[string]Strategy{
			venue.SourceHTML:      NewHTMLSelector(),
			venue.SourceJSONLD:    NewJSONLD(),
			venue.SourceWordPress: NewWordPress(),
			venue.SourceAJAX:      NewAJAX(),
		},
	}
}

// Resolve returns the strategy for a venue: exact key match first, then
// source-type match, else a configuration error naming both.
func (r *Registry) Resolve(v *venue.Venue) (Strategy, error) {
	if s, ok := r.specific[v.Key]; ok {
		return s, nil
	}
	if s, ok := r.generic[v.SourceType]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w %q (source_type: %q)", ErrNoStrategy, v.Key, v.SourceType)
}

// RegisterSpecific installs a hand-written strategy for a venue key,
// overwriting any prior mapping for that key.
func (r *Registry) RegisterSpecific(key string, s Strategy) {
	r.specific[key] = s
}

// WithOverride returns a copy of the registry with one specific strategy
// replaced, leaving the receiver untouched. Tests use this to stub venues
// without cross-test leakage.
func (r *Registry) WithOverride(key string, s Strategy) *Registry {
	out := &Registry{
		specific: make(map[string]Strategy, len(r.specific)+1),
		generic:  make(map[string]Strategy, len(r.generic)),
	}
	for k, v := range r.specific {
		out.specific[k] = v
	}
	for k, v := range r.generic {
		out.generic[k] = v
	}
	out.specific[key] = s
	return out
}

// SpecificKeys lists the venue keys with hand-written strategies, sorted.
func (r *Registry) SpecificKeys() []string {
	keys := make([]string, 0, len(r.specific))
	for k := range r.specific {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
