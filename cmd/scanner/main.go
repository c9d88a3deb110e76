// Package main provides the scanner command-line tool for collecting regulatory change documents.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"regscan/internal/config"
	"regscan/internal/crawler"
	"regscan/internal/formatter"
	"regscan/internal/logger"
	"regscan/internal/output"
	"regscan/internal/parsers"
	"regscan/internal/pipeline"
)

const defaultConfig = "configs/scanner.yaml"

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	targetURL := flag.String("url", "", "Single source URL to scan (overrides config)")
	parserType := flag.String("parser", string(config.ParserRSS), "Parser type for -url: RSS, HTML-TABLE or JSON-API")
	outputPath := flag.String("output", "", "Output file path (overrides config)")
	format := flag.String("format", "", "Output format: json or jsonl (overrides config)")
	batchSize := flag.Int("batch-size", 0, "Sources fetched per batch (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configFile, *targetURL, config.ParserType(*parserType))
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	applyOverrides(cfg, *outputPath, *format, *batchSize, *logLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v\n", err)
	}

	appLogger := logger.New(logger.Options{
		Level:  cfg.Scanner.Logging.Level,
		Format: cfg.Scanner.Logging.Format,
	})

	printScannerHeader(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scraper := crawler.NewScraperWithConfig(cfg.Scanner.Fetch, cfg.Scanner.Retry, appLogger)
	dispatcher := parsers.NewDispatcher(parsers.DefaultRegistry(appLogger, scraper), appLogger)
	orchestrator := pipeline.NewOrchestrator(scraper, dispatcher, appLogger, pipeline.WithObserver(progress{}))

	state, runErr := orchestrator.Run(ctx, cfg.GetEnabledSources(), cfg.Scanner.BatchSize)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("❌ Scan failed: %v\n", runErr)
	}

	if runErr != nil {
		fmt.Printf("⚠️  Scan interrupted after %d/%d sources, saving partial results\n", state.Cursor, len(state.Sources))
	}

	fmt.Println("\n📝 Saving documents...")

	summary, err := output.Write(state.Documents, output.Options{
		Path:        cfg.Scanner.Output.Path,
		Format:      cfg.Scanner.Output.Format,
		PrettyPrint: cfg.Scanner.Output.PrettyPrint,
		RunID:       orchestrator.RunID(),
	})
	if err != nil {
		log.Fatalf("❌ Save failed: %v\n", err)
	}

	fmt.Printf("✅ Saved %d documents to: %s\n", summary.Total, cfg.Scanner.Output.Path)

	printSummary(summary, scraper.Attempts())

	fmt.Println("\n✨ Scan complete!")
}

// loadConfig reads the config file, builds a single-source config from -url,
// or falls back to the default config path.
func loadConfig(configFile, targetURL string, parserType config.ParserType) (*config.Config, error) {
	switch {
	case targetURL != "":
		fmt.Println("⚙️  Using command-line arguments")
		return createConfigFromCLI(targetURL, parserType), nil
	case configFile != "":
		fmt.Printf("⚙️  Loading configuration from: %s\n", configFile)
		return config.LoadConfig(configFile)
	}

	if _, err := os.Stat(defaultConfig); err != nil {
		return nil, fmt.Errorf("provide -config or -url, or place %s in the working directory", defaultConfig)
	}

	fmt.Printf("⚙️  Loading default configuration: %s\n", defaultConfig)

	return config.LoadConfig(defaultConfig)
}

// createConfigFromCLI creates a config with one enabled source.
func createConfigFromCLI(url string, parserType config.ParserType) *config.Config {
	cfg := &config.Config{
		Scanner: config.ScannerConfig{
			Sources: []config.SourceConfig{
				{
					Source:  "CLI",
					Title:   "CLI Argument",
					URL:     url,
					Enabled: true,
					Parser:  config.ParserConfig{Type: parserType},
				},
			},
			Output: config.OutputConfig{PrettyPrint: true},
		},
	}

	cfg.ApplyDefaults()

	return cfg
}

func applyOverrides(cfg *config.Config, outputPath, format string, batchSize int, logLevel string) {
	if outputPath != "" {
		cfg.Scanner.Output.Path = outputPath
	}

	if format != "" {
		cfg.Scanner.Output.Format = format
	}

	if batchSize != 0 {
		cfg.Scanner.BatchSize = batchSize
	}

	if logLevel != "" {
		cfg.Scanner.Logging.Level = logLevel
	}
}

// progress prints one line per completed batch.
type progress struct {
	pipeline.NopObserver
}

func (progress) OnBatch(_ context.Context, r pipeline.BatchReport) {
	fmt.Printf("📦 Batch %d: sources %d-%d, %d fetched, %d failed, %d new documents (%d total)\n",
		r.Batch, r.Start+1, r.End, r.Fetched, r.FetchErrors, r.Added, r.Total)
}

func printScannerHeader(cfg *config.Config) {
	fmt.Println("🔎 Regulatory Change Scanner")
	fmt.Printf("Enabled sources: %d\n", len(cfg.GetEnabledSources()))
	fmt.Printf("Batch size: %d\n", cfg.Scanner.BatchSize)
	fmt.Printf("Retry policy: max %d attempts, %.1fx backoff\n",
		cfg.Scanner.Retry.MaxAttempts,
		cfg.Scanner.Retry.BackoffMultiplier)
	fmt.Printf("Output: %s (%s format)\n", cfg.Scanner.Output.Path, cfg.Scanner.Output.Format)
	fmt.Println()
}

func printSummary(summary output.Summary, attempts *crawler.AttemptLog) {
	fmt.Printf("\n📈 Documents by source:\n")

	rows := make([][]string, 0, len(summary.BySource))
	for _, r := range summary.Rows() {
		rows = append(rows, []string{formatter.Truncate(r.Source, 60), strconv.Itoa(r.Count)})
	}

	for _, line := range formatter.FormatTable([]string{"Source", "Documents"}, rows) {
		fmt.Println(line)
	}

	stats := attempts.Stats()
	if len(stats) == 0 {
		return
	}

	fmt.Printf("\n🌐 Fetch attempts:\n")

	rows = rows[:0]
	for _, s := range stats {
		rows = append(rows, []string{
			s.Source,
			strconv.Itoa(s.Attempts),
			strconv.Itoa(s.Failures),
			formatter.Truncate(s.LastError, 60),
		})
	}

	for _, line := range formatter.FormatTable([]string{"Source", "Attempts", "Failures", "Last error"}, rows) {
		fmt.Println(line)
	}
}

func printUsage() {
	fmt.Println("Usage: ./bin/scanner [OPTIONS]")
	fmt.Println()
	fmt.Println("Modes:")
	fmt.Println("  1. Config-based:   ./bin/scanner -config configs/scanner.yaml")
	fmt.Println("  2. Default config: ./bin/scanner (reads configs/scanner.yaml if exists)")
	fmt.Println("  3. Single source:  ./bin/scanner -url <URL> -parser RSS -output <PATH>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/scanner -config configs/scanner.yaml -batch-size 4")
	fmt.Println("  ./bin/scanner -url https://www.sec.gov/news/pressreleases.rss -format jsonl -output sec.jsonl")
}
