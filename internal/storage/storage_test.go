package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/venue-events/internal/event"
)

func TestWriteAndLoadFeed(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2025, 7, 4, 19, 0, 0, 0, time.UTC)
	events := []event.Event{{
		VenueKey:         "corner-bar",
		VenueName:        "The Corner Bar",
		Title:            "Vinyl Night",
		Date:             time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
		StartTime:        &start,
		ExtractionMethod: event.MethodJSONLD,
	}}
	errs := []string{"Failed to fetch information for: Taproom"}

	if err := store.WriteFeed(events, errs, "America/Los_Angeles"); err != nil {
		t.Fatal(err)
	}

	feed, err := store.LoadFeed()
	if err != nil {
		t.Fatal(err)
	}

	if feed.Timezone != "America/Los_Angeles" {
		t.Errorf("timezone = %q", feed.Timezone)
	}
	if len(feed.Events) != 1 || feed.Events[0].Title != "Vinyl Night" {
		t.Errorf("events = %+v", feed.Events)
	}
	if len(feed.Errors) != 1 || feed.Errors[0] != errs[0] {
		t.Errorf("errors = %v", feed.Errors)
	}
	if _, err := time.Parse(time.RFC3339, feed.GeneratedAt); err != nil {
		t.Errorf("generated_at %q is not RFC3339: %v", feed.GeneratedAt, err)
	}
}

func TestWriteFeedEmptyRun(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.WriteFeed(nil, nil, "UTC"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(store.FeedPath())
	if err != nil {
		t.Fatal(err)
	}
	// Events must serialize as an empty array, not null, for the renderer.
	if !strings.Contains(string(data), `"events": []`) {
		t.Errorf("feed should contain an empty events array:\n%s", data)
	}
}

func TestNewCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep", "nested")
	store, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.WriteFeed(nil, nil, "UTC"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(store.FeedPath()); err != nil {
		t.Errorf("feed file missing: %v", err)
	}
}
