package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"flightpulse/internal/errors"
	"flightpulse/pkg/contracts/domain"
)

const timestampFormat = "2006-01-02 15:04:05"

var curatedHeader = []string{
	"flight_id", "aircraft_id", "origin", "destination",
	"scheduled_departure", "actual_departure",
	"scheduled_arrival", "actual_arrival",
	"status", "fare_usd", "flight_date",
}

// CuratedWriter re-exports the curated record set as CSV, for downstream
// consumers that read files rather than the database. Absent actual
// timestamps are written as empty cells.
type CuratedWriter struct {
	path   string
	logger *slog.Logger
}

// NewCuratedWriter creates a curated-set writer targeting path
func NewCuratedWriter(path string, logger *slog.Logger) *CuratedWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CuratedWriter{path: path, logger: logger}
}

// WriteCSV writes the curated records, header first, staged atomically.
func (w *CuratedWriter) WriteCSV(ctx context.Context, records []domain.FlightRecord) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewExportError("failed to create output directory", err).
			WithContext("dir", dir)
	}

	tmp, err := os.CreateTemp(dir, ".curated-*.csv")
	if err != nil {
		return errors.NewExportError("failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(curatedHeader); err != nil {
		tmp.Close()
		return errors.NewExportError("failed to write CSV header", err)
	}
	for _, r := range records {
		row := []string{
			r.FlightID,
			r.AircraftID,
			r.Origin,
			r.Destination,
			r.ScheduledDeparture.Format(timestampFormat),
			formatOptional(r.ActualDeparture),
			r.ScheduledArrival.Format(timestampFormat),
			formatOptional(r.ActualArrival),
			string(r.Status),
			fmt.Sprintf("%.2f", r.FareUSD),
			r.FlightDate.Format("2006-01-02"),
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return errors.NewExportError("failed to write CSV row", err).
				WithContext("flight_id", r.FlightID)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return errors.NewExportError("failed to flush CSV", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewExportError("failed to close temp file", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return errors.NewExportError("failed to finalize curated CSV", err).
			WithContext("path", w.path)
	}

	w.logger.InfoContext(ctx, "curated records exported",
		slog.String("path", w.path),
		slog.Int("record_count", len(records)))

	return nil
}

// formatOptional formats a nullable timestamp, empty when absent.
func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timestampFormat)
}
