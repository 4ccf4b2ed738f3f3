package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/venue-events/internal/calendar"
	"github.com/pfrederiksen/venue-events/internal/fetch"
	"github.com/pfrederiksen/venue-events/internal/filter"
	"github.com/pfrederiksen/venue-events/internal/logger"
	"github.com/pfrederiksen/venue-events/internal/parser"
	"github.com/pfrederiksen/venue-events/internal/scraper"
	"github.com/pfrederiksen/venue-events/internal/storage"
	"github.com/pfrederiksen/venue-events/internal/timezone"
	"github.com/pfrederiksen/venue-events/internal/venue"
)

const (
	// ExitSuccess means the run was clean: no venue failed.
	ExitSuccess = 0
	// ExitError means the run produced no events and at least one venue
	// failed, or the command itself failed.
	ExitError = 1
	// ExitPartial means events were produced but some venues failed.
	ExitPartial = 2
)

var (
	flagVenuesFile  string
	flagFormat      string
	flagDataDir     string
	flagICSPath     string
	flagTimeout     time.Duration
	flagConcurrency int
	flagRetries     int
	flagDays        int
	flagVenueKeys   []string
	flagTitles      []string
	flagFrom        string
	flagTo          string
	flagWeekends    bool
	flagVerbose     bool
	flagMetrics     bool
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venue-events",
		Short: "Aggregate upcoming events from configured venue websites",
		Long: `Scrapes every venue in the venues file concurrently, normalizes the
results into a single feed covering the next week, and renders it as text
or JSON. Failed venues are reported without blocking the rest.`,
		SilenceUsage: true,
		RunE:         runScrape,
	}

	cmd.Flags().StringVar(&flagVenuesFile, "venues", "", "Path to the venues JSON file (required)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Write a feed snapshot into this directory")
	cmd.Flags().StringVar(&flagICSPath, "ics", "", "Write an iCalendar export to this path")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", fetch.DefaultTimeout, "Per-request HTTP timeout")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", scraper.DefaultMaxConcurrent, "Venues scraped in parallel")
	cmd.Flags().IntVar(&flagRetries, "retries", scraper.DefaultMaxRetries, "Attempts per venue for transient failures")
	cmd.Flags().IntVar(&flagDays, "days", scraper.DefaultWindowDays, "Forward window in days")
	cmd.Flags().StringSliceVar(&flagVenueKeys, "venue", nil, "Only show events from these venue keys")
	cmd.Flags().StringSliceVar(&flagTitles, "title", nil, "Only show events whose title contains one of these terms")
	cmd.Flags().StringVar(&flagFrom, "from", "", "Only show events on or after this date")
	cmd.Flags().StringVar(&flagTo, "to", "", "Only show events on or before this date")
	cmd.Flags().BoolVar(&flagWeekends, "weekends-only", false, "Only show Saturday/Sunday events")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	cmd.Flags().BoolVar(&flagMetrics, "metrics", false, "Print run metrics to stderr")

	cmd.MarkFlagRequired("venues")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	}

	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	file, err := venue.LoadFile(flagVenuesFile)
	if err != nil {
		return err
	}

	displayFilter, err := filter.FromFlags(flagVenueKeys, flagTitles, flagFrom, flagTo, flagWeekends)
	if err != nil {
		return err
	}

	tzName := file.Timezone
	if tzName == "" {
		tzName = timezone.DefaultName
	}

	var metrics *scraper.Metrics
	if flagMetrics {
		metrics = scraper.NewMetrics()
	}

	coord := scraper.New(fetch.New(flagTimeout), parser.NewRegistry(), scraper.Options{
		MaxConcurrent: flagConcurrency,
		MaxRetries:    flagRetries,
		WindowDays:    flagDays,
		Metrics:       metrics,
	})

	events := coord.ScrapeAll(cmd.Context(), file.Venues)
	userErrors := coord.UserMessages()
	events = displayFilter.Apply(events)

	if flagDataDir != "" {
		store, err := storage.New(flagDataDir)
		if err != nil {
			return err
		}
		if err := store.WriteFeed(events, userErrors, tzName); err != nil {
			return err
		}
	}

	if flagICSPath != "" {
		if err := os.WriteFile(flagICSPath, []byte(calendar.GenerateICS(events)), 0644); err != nil {
			return fmt.Errorf("writing calendar: %w", err)
		}
	}

	result := &Result{
		GeneratedAt: time.Now().UTC(),
		Timezone:    tzName,
		Events:      events,
		Errors:      userErrors,
	}
	if err := WriteOutput(os.Stdout, result, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagMetrics {
		metrics.WriteSummary(os.Stderr)
	}

	os.Exit(exitCode(len(events), len(userErrors)))
	return nil
}

// exitCode implements the partial-failure convention: clean runs exit 0,
// total failures exit 1, and runs that produced events despite some venue
// failures exit 2.
func exitCode(eventCount, errorCount int) int {
	switch {
	case errorCount == 0:
		return ExitSuccess
	case eventCount == 0:
		return ExitError
	default:
		return ExitPartial
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
