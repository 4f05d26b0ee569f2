package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/carefinder/backend/internal/adapters/livefeed"
	"github.com/carefinder/backend/internal/application/services"
	"github.com/carefinder/backend/internal/matching"
	"github.com/carefinder/backend/pkg/config"
)

// feedprobe fetches the live occupancy feed once and prints it, for checking
// upstream markup drift without starting the API server.
func main() {
	var asJSON bool
	var timeoutFlag string
	flag.BoolVar(&asJSON, "json", false, "print records as JSON instead of a table")
	flag.StringVar(&timeoutFlag, "timeout", "", "fetch timeout override (e.g. 15s)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	timeout := cfg.LiveFeed.FetchTimeout
	if timeoutFlag != "" {
		timeout, err = time.ParseDuration(timeoutFlag)
		if err != nil {
			log.Fatalf("Invalid timeout %q: %v", timeoutFlag, err)
		}
	}

	tables, err := matching.LoadTables(cfg.Matching.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load matching tables from %s: %v", cfg.Matching.ConfigPath, err)
	}
	normalizer := matching.NewNormalizer(tables)

	scraper := livefeed.NewScraper(cfg.LiveFeed.URL, timeout, normalizer)

	ctx, cancel := context.WithTimeout(context.Background(), timeout+2*time.Second)
	defer cancel()

	records, err := scraper.Fetch(ctx)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(records); err != nil {
			log.Fatalf("Failed to encode records: %v", err)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNORMALIZED\tWAITING\tOCCUPANCY\tWAIT")
	estimator := services.NewWaitEstimator()
	for i := range records {
		rec := records[i]
		estimate := estimator.Estimate(&rec, "")
		fmt.Fprintf(w, "%s\t%s\t%d\t%d%%\t%s\n",
			rec.Name,
			rec.NormalizedName,
			rec.WaitingToSeeDoctor,
			rec.OccupancyRate,
			services.FormatWaitMinutes(estimate.Minutes),
		)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to flush output: %v", err)
	}
	fmt.Printf("\n%d records\n", len(records))
}
