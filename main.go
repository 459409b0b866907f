package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gmaps-scraper/browser"
	"gmaps-scraper/config"
	"gmaps-scraper/models"
	"gmaps-scraper/scraper/gmaps"
	"gmaps-scraper/services"
	"gmaps-scraper/storage"
	"gmaps-scraper/utils"
)

var rootCmd = &cobra.Command{
	Use:           "gmaps-scraper",
	Short:         "Collect business listings from map searches into a CSV",
	Long:          "Runs each search query in a fresh browser session, walks the result list, extracts name, address, phone, site and description, de-duplicates across queries and writes a semicolon-delimited UTF-8 CSV.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScrape,
}

func init() {
	f := rootCmd.Flags()
	f.StringP("location", "l", "", "search location (prompted when empty)")
	f.StringP("queries", "q", "", "comma-separated search queries (prompted when empty)")
	f.Bool("defaults", false, "use the built-in query list without prompting")
	f.StringP("output", "o", "results.csv", "CSV output path")
	f.String("xlsx", "", "optional XLSX output path")
	f.Bool("headless", true, "run the browser without a window")
	f.Int("scrolls", 4, "scroll passes over the result list")
	f.String("store-driver", "", "optional SQL sink: postgres or sqlite")
	f.String("store-dsn", "", "SQL sink connection string")
	f.String("log-level", "info", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := utils.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	location, err := p.location(cfg)
	if err != nil {
		return err
	}
	queries, err := p.queries(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Map listing scraper starting ===")
	logger.Info("Location: %s | queries: %d | scrolls: %d | headless: %t",
		location, len(queries), cfg.ScrollCount, cfg.Headless)

	runner := gmaps.NewRunner(
		&browser.ChromeOpener{Headless: cfg.Headless, ChromeBin: cfg.ChromeBin},
		runnerOptions(cfg),
		logger,
	)
	records := services.NewAggregator(runner, logger).Aggregate(ctx, queries, location)
	logger.Info("Collected %d unique listings", len(records))

	writeAll(cfg, location, records, logger)

	insights := services.NewInsightService(logger)
	insights.Print(cmd.OutOrStdout(), insights.Generate(records))
	return nil
}

func runnerOptions(cfg *config.Config) gmaps.RunnerOptions {
	return gmaps.RunnerOptions{
		MapsURL:        cfg.MapsURL,
		PageLoadDelay:  cfg.PageLoadDelay(),
		SearchDelay:    cfg.SearchDelay(),
		ResultsTimeout: cfg.ResultsTimeout(),
		QueryTimeout:   cfg.QueryTimeout(),
		Walk: gmaps.WalkOptions{
			ScrollCount: cfg.ScrollCount,
			ScrollDelay: cfg.ScrollDelay(),
			ItemDelay:   cfg.ItemDelay(),
			DetailDelay: cfg.DetailDelay(),
		},
	}
}

type sink struct {
	name string
	open func() (storage.RecordWriter, error)
}

// sinks lists the configured outputs. The CSV is always written.
func sinks(cfg *config.Config, location string) []sink {
	out := []sink{{
		name: "CSV " + cfg.OutputPath,
		open: func() (storage.RecordWriter, error) { return storage.NewCSVWriter(cfg.OutputPath) },
	}}
	if cfg.XLSXOutputPath != "" {
		out = append(out, sink{
			name: "XLSX " + cfg.XLSXOutputPath,
			open: func() (storage.RecordWriter, error) { return storage.NewXLSXWriter(cfg.XLSXOutputPath) },
		})
	}
	if cfg.StoreDriver != "" {
		out = append(out, sink{
			name: cfg.StoreDriver + " store",
			open: func() (storage.RecordWriter, error) {
				return storage.NewSQLWriter(cfg.StoreDriver, cfg.StoreDSN, location, storage.SQLOptions{})
			},
		})
	}
	return out
}

// writeAll writes records to every sink. A failing sink is logged and the
// remaining sinks still run.
func writeAll(cfg *config.Config, location string, records []models.ListingRecord, logger *utils.Logger) {
	for _, s := range sinks(cfg, location) {
		if err := writeTo(s, records); err != nil {
			logger.Error("Writing %s failed: %v", s.name, err)
			continue
		}
		logger.Info("Saved %d listings to %s", len(records), s.name)
	}
}

func writeTo(s sink, records []models.ListingRecord) error {
	w, err := s.open()
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
