package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/venue-events/internal/event"
)

const feedFileName = "events.json"

// Feed is the on-disk snapshot of one scrape run.
type Feed struct {
	GeneratedAt string        `json:"generated_at"`
	Timezone    string        `json:"timezone"`
	Events      []event.Event `json:"events"`
	Errors      []string      `json:"errors,omitempty"`
}

// Storage writes feed snapshots into a data directory.
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir, creating the directory if
// needed. A leading ~/ expands to the user's home directory.
func New(dataDir string) (*Storage, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{dataDir: dataDir}, nil
}

// FeedPath returns the path the snapshot is written to.
func (s *Storage) FeedPath() string {
	return filepath.Join(s.dataDir, feedFileName)
}

// WriteFeed snapshots a run's events and user-facing errors. The previous
// snapshot is overwritten; history is the deployment pipeline's concern.
func (s *Storage) WriteFeed(events []event.Event, errors []string, tzName string) error {
	feed := Feed{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Timezone:    tzName,
		Events:      events,
		Errors:      errors,
	}
	if feed.Events == nil {
		feed.Events = []event.Event{}
	}

	data, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}
	if err := os.WriteFile(s.FeedPath(), data, 0644); err != nil {
		return fmt.Errorf("writing feed: %w", err)
	}
	return nil
}

// LoadFeed reads back the last written snapshot.
func (s *Storage) LoadFeed() (*Feed, error) {
	data, err := os.ReadFile(s.FeedPath())
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return &feed, nil
}
