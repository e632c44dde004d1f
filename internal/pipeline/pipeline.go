// Package pipeline orchestrates one batch run: ingest, cleanse, compute
// metrics, then fan out to the persistence and export sinks. The sinks
// are independent and each atomic — a failure in one never corrupts the
// other's output — so a run either aborts with no partial artifacts or
// completes with both.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"flightpulse/internal/config"
	"flightpulse/internal/dataprocessing"
	"flightpulse/internal/infrastructure"
	"flightpulse/internal/ingestion"
	"flightpulse/pkg/contracts/domain"
)

// CuratedSink receives the curated record set as a file export. It is
// optional; the persistence sink is the primary consumer of curated data.
type CuratedSink interface {
	WriteCSV(ctx context.Context, records []domain.FlightRecord) error
}

// RunSummary describes one completed pipeline run.
type RunSummary struct {
	RunID        string                 `json:"run_id"`
	RawCount     int                    `json:"raw_count"`
	CuratedCount int                    `json:"curated_count"`
	Cleansing    domain.CleansingReport `json:"cleansing"`
	Metrics      domain.MetricsReport   `json:"metrics"`
	RowsInserted int64                  `json:"rows_inserted"`
	Duration     time.Duration          `json:"duration"`
}

// Runner executes the full batch pipeline. It holds no state across runs;
// every invocation recomputes the curated set deterministically from raw
// input, which together with the store's insert-if-absent semantics makes
// repeated runs idempotent.
type Runner struct {
	cfg      config.PipelineConfig
	cleanser *dataprocessing.Cleanser
	engine   *dataprocessing.Engine
	store    domain.FlightStore
	exporter domain.MetricsExporter
	curated  CuratedSink // nil disables the curated CSV export
	logger   *slog.Logger
}

// NewRunner wires the pipeline stages to the given sinks.
func NewRunner(
	cfg config.PipelineConfig,
	store domain.FlightStore,
	exporter domain.MetricsExporter,
	curated CuratedSink,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		cleanser: dataprocessing.NewCleanser(logger),
		engine:   dataprocessing.NewEngine(logger),
		store:    store,
		exporter: exporter,
		curated:  curated,
		logger:   logger,
	}
}

// Run executes one batch: ingest (fatal on error), cleanse, compute, then
// persist and export concurrently. Returns the summary and the first sink
// error, if any.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	start := time.Now()

	r.logger.InfoContext(ctx, "pipeline run starting",
		slog.String("input_path", r.cfg.InputPath))

	raw, err := ingestion.ReadFile(r.cfg.InputPath, r.logger)
	if err != nil {
		infrastructure.WithError(r.logger, err).ErrorContext(ctx, "ingestion failed")
		return nil, err
	}

	curated, cleansing := r.cleanser.Cleanse(ctx, raw)
	report := r.engine.Compute(ctx, curated)

	summary := &RunSummary{
		RunID:        infrastructure.GetRunID(ctx),
		RawCount:     len(raw),
		CuratedCount: len(curated),
		Cleansing:    cleansing,
		Metrics:      report,
	}

	// The sinks are independent: each writes its whole artifact or
	// nothing. A plain errgroup (no shared cancellation) lets a healthy
	// sink finish even when its sibling fails.
	var g errgroup.Group

	g.Go(func() error {
		inserted, err := r.store.SaveFlights(ctx, curated)
		if err != nil {
			infrastructure.WithError(r.logger, err).ErrorContext(ctx, "persistence sink failed")
			return err
		}
		summary.RowsInserted = inserted
		return nil
	})

	g.Go(func() error {
		if err := r.exporter.ExportMetrics(ctx, report); err != nil {
			infrastructure.WithError(r.logger, err).ErrorContext(ctx, "metrics export failed")
			return err
		}
		return nil
	})

	if r.curated != nil {
		g.Go(func() error {
			if err := r.curated.WriteCSV(ctx, curated); err != nil {
				infrastructure.WithError(r.logger, err).ErrorContext(ctx, "curated CSV export failed")
				return err
			}
			return nil
		})
	}

	sinkErr := g.Wait()
	summary.Duration = time.Since(start)

	if sinkErr != nil {
		return summary, sinkErr
	}

	r.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("raw_count", summary.RawCount),
		slog.Int("curated_count", summary.CuratedCount),
		slog.Int("records_removed", summary.Cleansing.Removed()),
		slog.Int64("rows_inserted", summary.RowsInserted),
		slog.Duration("duration", summary.Duration))

	return summary, nil
}
