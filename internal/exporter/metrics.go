// Package exporter writes pipeline outputs to durable documents: the
// metrics report as JSON and the curated record set as CSV. Writers are
// atomic — output is staged to a temp file and renamed into place, so a
// failed export never leaves a partial document behind.
package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"flightpulse/internal/errors"
	"flightpulse/pkg/contracts/domain"
)

// MetricsWriter serializes a MetricsReport to a JSON document. It
// implements domain.MetricsExporter.
type MetricsWriter struct {
	path   string
	logger *slog.Logger
}

// NewMetricsWriter creates a metrics writer targeting path
func NewMetricsWriter(path string, logger *slog.Logger) *MetricsWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsWriter{path: path, logger: logger}
}

// ExportMetrics writes the report as two-space-indented JSON.
func (w *MetricsWriter) ExportMetrics(ctx context.Context, report domain.MetricsReport) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewExportError("failed to create output directory", err).
			WithContext("dir", dir)
	}

	tmp, err := os.CreateTemp(dir, ".metrics-*.json")
	if err != nil {
		return errors.NewExportError("failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		tmp.Close()
		return errors.NewExportError("failed to encode metrics report", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewExportError("failed to flush metrics report", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return errors.NewExportError("failed to finalize metrics report", err).
			WithContext("path", w.path)
	}

	w.logger.InfoContext(ctx, "metrics exported",
		slog.String("path", w.path),
		slog.Int("total_flights", report.TotalFlights))

	return nil
}
