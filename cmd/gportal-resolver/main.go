// GPortal scene resolver entry point
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/rsl-kuas/gportal-resolver/internal/config"
	"github.com/rsl-kuas/gportal-resolver/internal/gportal"
	"github.com/rsl-kuas/gportal-resolver/internal/pipeline"
	"github.com/rsl-kuas/gportal-resolver/internal/resolve"
	"github.com/rsl-kuas/gportal-resolver/internal/table"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("missing command")
	}

	switch os.Args[1] {
	case "search":
		return runSearch(cfg, logger, os.Args[2:])
	case "bulk":
		return runBulk(cfg, logger, os.Args[2:])
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Println("Usage: gportal-resolver <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  search  Resolve a single scene and print it")
	fmt.Println("  bulk    Resolve every row of a query CSV, checkpointing as it goes")
}

// runSearch resolves one query from flags and prints the matching scene.
func runSearch(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	date := fs.String("date", "", "observation date (YYYY-MM-DD, required)")
	lat := fs.String("lat", "", "latitude of the point of interest")
	lon := fs.String("lon", "", "longitude of the point of interest")
	path := fs.String("path", "", "orbit path number")
	scene := fs.String("scene", "", "scene number within the path")
	resolution := fs.String("resolution", cfg.Bulk.DefaultResolution, "resolution class (250m or 1km)")
	product := fs.String("product", cfg.GPortal.Product, "processing level (L1B, L2R, L2P)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *date == "" {
		fs.Usage()
		return fmt.Errorf("-date is required")
	}

	q := table.QueryRow{Date: *date, Resolution: *resolution}
	var err error
	if q.Latitude, err = parseFloatFlag(*lat); err != nil {
		return fmt.Errorf("invalid -lat: %w", err)
	}
	if q.Longitude, err = parseFloatFlag(*lon); err != nil {
		return fmt.Errorf("invalid -lon: %w", err)
	}
	if q.PathNumber, err = parseIntFlag(*path); err != nil {
		return fmt.Errorf("invalid -path: %w", err)
	}
	if q.SceneNumber, err = parseIntFlag(*scene); err != nil {
		return fmt.Errorf("invalid -scene: %w", err)
	}

	res, err := gportal.ParseResolution(q.Resolution)
	if err != nil {
		return err
	}
	prod, err := gportal.ParseProduct(*product)
	if err != nil {
		return err
	}

	client := gportal.NewClient(cfg.GPortal.BaseURL, cfg.GPortal.Timeout).WithLogger(logger)

	ctx := context.Background()
	set, err := client.Search(ctx, gportal.SearchParams{
		Product:     prod,
		Date:        q.Date,
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		Resolution:  res,
		PathNumber:  q.PathNumber,
		SceneNumber: q.SceneNumber,
		Count:       cfg.GPortal.Count,
	})
	if err != nil {
		return fmt.Errorf("catalog search failed: %w", err)
	}

	fp, err := resolve.Resolve(set, resolve.Filter{
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		PathNumber:  q.PathNumber,
		SceneNumber: q.SceneNumber,
	})
	if err != nil {
		return err
	}
	if fp == nil {
		return fmt.Errorf("no matching scene found")
	}

	printFootprint(fp)
	return nil
}

func printFootprint(fp *gportal.Footprint) {
	fmt.Printf("ID: %s\n", fp.Identifier)
	fmt.Printf("status: %s\n", fp.Status)
	fmt.Printf("resolution: %s\n", fp.Resolution)
	fmt.Printf("Path: %d\n", fp.PathNumber)
	fmt.Printf("Scene: %d\n", fp.SceneNumber)
	fmt.Printf("download: %s\n", fp.DownloadURL)
	fmt.Printf("preview: %s\n", fp.PreviewURL)
	if fp.CloudCover != nil {
		fmt.Printf("cloud: %g\n", *fp.CloudCover)
	} else {
		fmt.Printf("cloud: -\n")
	}
}

// runBulk resolves every row of the input query CSV into the output
// table, resuming from a previous output file when one exists.
func runBulk(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("bulk", flag.ExitOnError)
	input := fs.String("input", "", "query CSV path (required)")
	output := fs.String("output", "", "output CSV path (defaults to the input path, mutating it in place)")
	skip := fs.Bool("skip-if-done", cfg.Bulk.SkipIfDone, "skip rows that already carry an identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *input == "" {
		fs.Usage()
		return fmt.Errorf("-input is required")
	}
	if *output == "" {
		*output = *input
	}

	queries, err := table.LoadQueries(*input)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}
	if len(queries) == 0 {
		return fmt.Errorf("query file %s has no rows", *input)
	}

	tbl, err := table.LoadOrNew(*output)
	if err != nil {
		return fmt.Errorf("failed to load output table: %w", err)
	}

	logger.Info("starting bulk resolution",
		slog.String("input", *input),
		slog.String("output", *output),
		slog.Int("rows", len(queries)),
		slog.Int("seeded_rows", tbl.Len()),
		slog.Bool("skip_if_done", *skip),
	)

	client := gportal.NewClient(cfg.GPortal.BaseURL, cfg.GPortal.Timeout).WithLogger(logger)

	bar := progressbar.NewOptions(len(queries),
		progressbar.OptionSetDescription("resolving"),
		progressbar.OptionShowCount(),
	)

	driver := pipeline.NewDriver(client, tbl, pipeline.Config{
		SkipIfDone:         *skip,
		DefaultResolution:  cfg.DefaultResolution(),
		CheckpointInterval: cfg.Bulk.CheckpointInterval,
		Product:            cfg.Product(),
		Count:              cfg.GPortal.Count,
		OutputPath:         *output,
	}).
		WithLogger(logger).
		WithProgress(func(done, total int) {
			bar.Set(done)
		})

	summary, err := driver.Run(context.Background(), queries)
	bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Printf("resolved %d, skipped %d, unresolved %d, errored %d of %d rows\n",
		summary.Resolved, summary.Skipped, summary.Unresolved, summary.Errored, summary.Total)
	return nil
}

func parseFloatFlag(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseIntFlag(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
