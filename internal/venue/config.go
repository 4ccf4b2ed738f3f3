package venue

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is the on-disk venues document consumed from the configuration
// collaborator.
type File struct {
	Name     string  `json:"name,omitempty"`
	Timezone string  `json:"timezone,omitempty"`
	Venues   []Venue `json:"venues"`
}

// LoadFile reads and validates a venues JSON file. Venue keys must be
// globally unique since they drive specific-strategy lookup.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading venues file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing venues file: %w", err)
	}

	if len(f.Venues) == 0 {
		return nil, fmt.Errorf("venues file %s contains no venues", path)
	}

	seen := make(map[string]bool, len(f.Venues))
	for i := range f.Venues {
		v := &f.Venues[i]
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("venues file %s: %w", path, err)
		}
		if seen[v.Key] {
			return nil, fmt.Errorf("venues file %s: duplicate venue key %q", path, v.Key)
		}
		seen[v.Key] = true

		// Venues inherit the file-level timezone unless they set their own.
		if v.Timezone == "" {
			v.Timezone = f.Timezone
		}
	}

	return &f, nil
}
