package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"flightpulse/internal/config"
	"flightpulse/internal/exporter"
	"flightpulse/internal/infrastructure"
	"flightpulse/internal/pipeline"
	"flightpulse/internal/storage"
)

func main() {
	in := flag.String("in", "", "input file (.csv or .xlsx); overrides config")
	out := flag.String("out", "", "output directory for exported documents; overrides config")
	configFile := flag.String("config", "config.yaml", "path to YAML configuration file")
	exportCSV := flag.Bool("export-csv", false, "also export the curated record set as CSV")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *in != "" {
		cfg.Pipeline.InputPath = *in
	}
	if *out != "" {
		cfg.Pipeline.OutputDir = *out
	}
	if *exportCSV {
		cfg.Pipeline.ExportCuratedCSV = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.ContextWithRunID(context.Background())

	logger.InfoContext(ctx, "Starting flight operations pipeline",
		slog.String("input_path", cfg.Pipeline.InputPath),
		slog.String("output_dir", cfg.Pipeline.OutputDir))

	store, err := storage.Connect(cfg.Database, infrastructure.WithComponent(logger, "storage"))
	if err != nil {
		logger.ErrorContext(ctx, "Database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.ErrorContext(ctx, "Schema setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	exportLogger := infrastructure.WithComponent(logger, "exporter")
	metricsWriter := exporter.NewMetricsWriter(cfg.Pipeline.MetricsPath(), exportLogger)

	var curatedSink pipeline.CuratedSink
	if cfg.Pipeline.ExportCuratedCSV {
		curatedSink = exporter.NewCuratedWriter(cfg.Pipeline.CuratedCSVPath(), exportLogger)
	}

	runner := pipeline.NewRunner(cfg.Pipeline, store, metricsWriter, curatedSink,
		infrastructure.WithComponent(logger, "pipeline"))

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Pipeline run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Pipeline run succeeded",
		slog.Int("raw_records", summary.RawCount),
		slog.Int("curated_records", summary.CuratedCount),
		slog.Int("duplicates_removed", summary.Cleansing.DuplicatesRemoved),
		slog.Int("invalid_removed", summary.Cleansing.InvalidRemoved),
		slog.Int64("rows_inserted", summary.RowsInserted),
		slog.String("metrics_path", cfg.Pipeline.MetricsPath()),
		slog.Duration("duration", summary.Duration))
}
